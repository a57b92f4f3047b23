// Пакет service — бизнес-логика Data Acquisition Service.
//
// Orchestrator ведёт заявку по жизненному циклу: принимает заявки
// клиентов и уведомления Uploader, обрабатывает callback Downloader
// и Metadata Parser, сохраняет новое состояние и только после этого
// ставит исходящий вызов следующему сервису.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/goartstore/data-acquisition/internal/dispatch"
	"github.com/bigkaa/goartstore/data-acquisition/internal/domain/model"
	"github.com/bigkaa/goartstore/data-acquisition/internal/downstream"
	"github.com/bigkaa/goartstore/data-acquisition/internal/repository"
)

// Пути callback относительно публичного URL сервиса.
const (
	DownloadCallbackPath = "/v1/das/callback/downloader/"
	MetadataCallbackPath = "/v1/das/callback/metadata/"
)

// stateTransitionsTotal — выполненные переходы состояний.
var stateTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "das_state_transitions_total",
		Help: "Количество переходов состояний заявок",
	},
	[]string{"from", "to"},
)

// AccessValidator проверяет доступ пользователя к организациям.
// Реализуется auth.OrgAccessGuard.
type AccessValidator interface {
	ValidateAccess(ctx context.Context, token downstream.Secret, orgIDs []string) error
}

// OrchestratorConfig — адреса и правила маршрутизации заявок.
type OrchestratorConfig struct {
	// SelfURL — публичный базовый URL сервиса.
	SelfURL string
	// DownloaderURL — базовый URL Downloader.
	DownloaderURL string
	// MetadataParserURL — базовый URL Metadata Parser.
	MetadataParserURL string
	// HDFSPrefix — префикс источников, уже лежащих в хранилище.
	HDFSPrefix string
}

// Orchestrator — движок жизненного цикла заявок.
type Orchestrator struct {
	store      repository.RequestStore
	guard      AccessValidator
	dispatcher dispatch.Dispatcher
	cfg        OrchestratorConfig
	validate   *validator.Validate
	now        func() time.Time
	logger     *slog.Logger
}

// NewOrchestrator создаёт движок заявок.
func NewOrchestrator(
	store repository.RequestStore,
	guard AccessValidator,
	dispatcher dispatch.Dispatcher,
	cfg OrchestratorConfig,
	logger *slog.Logger,
) *Orchestrator {
	if cfg.HDFSPrefix == "" {
		cfg.HDFSPrefix = "hdfs://"
	}
	return &Orchestrator{
		store:      store,
		guard:      guard,
		dispatcher: dispatcher,
		cfg:        cfg,
		validate:   newValidator(),
		now:        time.Now,
		logger:     logger.With(slog.String("component", "orchestrator")),
	}
}

// SetClock подменяет источник времени (для тестов).
func (o *Orchestrator) SetClock(now func() time.Time) {
	o.now = now
}

// DownloadCallbackURL — URL callback Downloader для заявки id.
func DownloadCallbackURL(selfURL, id string) string {
	return strings.TrimRight(selfURL, "/") + DownloadCallbackPath + id
}

// MetadataCallbackURL — URL callback Metadata Parser для заявки id.
func MetadataCallbackURL(selfURL, id string) string {
	return strings.TrimRight(selfURL, "/") + MetadataCallbackPath + id
}

// Submit принимает новую заявку.
// Источник с префиксом HDFSPrefix уже лежит в хранилище: заявка сразу
// становится DOWNLOADED и уходит в Metadata Parser. Остальные становятся
// VALIDATED и уходят в Downloader.
func (o *Orchestrator) Submit(ctx context.Context, token downstream.Secret, in SubmitInput) (*model.AcquisitionRequest, error) {
	if err := o.validate.Struct(in); err != nil {
		return nil, fromValidatorErrors(err)
	}
	if err := o.guard.ValidateAccess(ctx, token, []string{in.OrgUUID}); err != nil {
		return nil, err
	}

	req := model.NewAcquisitionRequest("", in.OrgUUID, in.Title, in.Source, in.Category, *in.PublicRequest)

	if strings.HasPrefix(req.Source, o.cfg.HDFSPrefix) {
		if err := o.transition(req, model.StateDownloaded); err != nil {
			return nil, err
		}
		if err := o.store.Put(ctx, req); err != nil {
			return nil, fmt.Errorf("сохранение заявки %s: %w", req.ID, err)
		}
		o.logger.Info("Заявка на источник в хранилище, загрузка пропущена",
			slog.String("id", req.ID),
			slog.String("title", req.Title),
		)
		o.enqueueMetadata(ctx, req, "", "", token)
		return req, nil
	}

	if err := o.transition(req, model.StateValidated); err != nil {
		return nil, err
	}
	if err := o.store.Put(ctx, req); err != nil {
		return nil, fmt.Errorf("сохранение заявки %s: %w", req.ID, err)
	}
	o.logger.Info("Заявка принята",
		slog.String("id", req.ID),
		slog.String("title", req.Title),
		slog.String("org", req.OrgUUID),
	)
	o.enqueue(ctx, dispatch.Job{
		URL: downstream.JoinURL(o.cfg.DownloaderURL, downstream.DownloaderPath),
		Body: downstream.DownloadRequest{
			Source:   req.Source,
			Callback: DownloadCallbackURL(o.cfg.SelfURL, req.ID),
		},
		Token: token,
	})
	return req, nil
}

// ListForOrgs возвращает заявки всех перечисленных организаций.
func (o *Orchestrator) ListForOrgs(ctx context.Context, token downstream.Secret, orgs []string) ([]*model.AcquisitionRequest, error) {
	orgs = uniqueNonEmpty(orgs)
	if len(orgs) == 0 {
		return nil, newValidationError("orgs", "обязательный параметр")
	}
	for _, org := range orgs {
		if strings.Contains(org, model.KeySeparator) {
			return nil, newValidationError("orgs", fmt.Sprintf("не должно содержать %q", model.KeySeparator))
		}
	}
	if err := o.guard.ValidateAccess(ctx, token, orgs); err != nil {
		return nil, err
	}

	result := make([]*model.AcquisitionRequest, 0)
	for _, org := range orgs {
		reqs, err := o.store.GetForOrg(ctx, org)
		if err != nil {
			return nil, fmt.Errorf("заявки организации %s: %w", org, err)
		}
		result = append(result, reqs...)
	}
	return result, nil
}

// Get возвращает заявку, если у пользователя есть доступ к её организации.
func (o *Orchestrator) Get(ctx context.Context, token downstream.Secret, id string) (*model.AcquisitionRequest, error) {
	req, err := o.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := o.guard.ValidateAccess(ctx, token, []string{req.OrgUUID}); err != nil {
		return nil, err
	}
	return req, nil
}

// Delete удаляет заявку, если у пользователя есть доступ к её организации.
func (o *Orchestrator) Delete(ctx context.Context, token downstream.Secret, id string) error {
	req, err := o.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := o.guard.ValidateAccess(ctx, token, []string{req.OrgUUID}); err != nil {
		return err
	}
	if err := o.store.Delete(ctx, req); err != nil {
		return fmt.Errorf("удаление заявки %s: %w", id, err)
	}
	o.logger.Info("Заявка удалена", slog.String("id", id))
	return nil
}

// DownloadCallback обрабатывает результат загрузки.
// DONE → DOWNLOADED и вызов Metadata Parser, иначе → ERROR без вызовов.
func (o *Orchestrator) DownloadCallback(ctx context.Context, token downstream.Secret, id string, in DownloadCallbackInput) (*model.AcquisitionRequest, error) {
	if err := o.validate.Struct(in); err != nil {
		return nil, fromValidatorErrors(err)
	}
	done := in.State == CallbackStateDone
	if done && in.SavedObjectID == "" && in.ObjectStoreID == "" {
		return nil, newValidationError("savedObjectId", "обязательное поле для state DONE")
	}

	req, err := o.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !done {
		if err := o.transition(req, model.StateError); err != nil {
			return nil, err
		}
		if err := o.store.Put(ctx, req); err != nil {
			return nil, fmt.Errorf("сохранение заявки %s: %w", id, err)
		}
		o.logger.Error("Ошибка загрузки в Downloader",
			slog.String("id", req.ID),
			slog.String("title", req.Title),
			slog.String("state", in.State),
		)
		return req, nil
	}

	if err := o.transition(req, model.StateDownloaded); err != nil {
		return nil, err
	}
	if err := o.store.Put(ctx, req); err != nil {
		return nil, fmt.Errorf("сохранение заявки %s: %w", id, err)
	}
	o.logger.Info("Набор данных загружен",
		slog.String("id", req.ID),
		slog.String("title", req.Title),
	)

	idInObjectStore := in.SavedObjectID
	if idInObjectStore == "" {
		idInObjectStore = in.ObjectStoreID
	}
	o.enqueueMetadata(ctx, req, idInObjectStore, in.ObjectStoreID, token)
	return req, nil
}

// MetadataCallback обрабатывает результат разбора метаданных.
// DONE → FINISHED, иначе → ERROR. Исходящих вызовов нет.
func (o *Orchestrator) MetadataCallback(ctx context.Context, id string, in MetadataCallbackInput) (*model.AcquisitionRequest, error) {
	if err := o.validate.Struct(in); err != nil {
		return nil, fromValidatorErrors(err)
	}

	req, err := o.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	target := model.StateError
	if in.State == CallbackStateDone {
		target = model.StateFinished
	}
	if err := o.transition(req, target); err != nil {
		return nil, err
	}
	if err := o.store.Put(ctx, req); err != nil {
		return nil, fmt.Errorf("сохранение заявки %s: %w", id, err)
	}

	if target == model.StateFinished {
		o.logger.Info("Заявка выполнена",
			slog.String("id", req.ID),
			slog.String("title", req.Title),
		)
	} else {
		o.logger.Error("Ошибка разбора метаданных",
			slog.String("id", req.ID),
			slog.String("title", req.Title),
			slog.String("state", in.State),
		)
	}
	return req, nil
}

// Upload регистрирует набор данных, загруженный через Uploader:
// заявка создаётся или обновляется сразу в состоянии DOWNLOADED.
func (o *Orchestrator) Upload(ctx context.Context, token downstream.Secret, in UploadInput) (*model.AcquisitionRequest, error) {
	if err := o.validate.Struct(in); err != nil {
		return nil, fromValidatorErrors(err)
	}
	if err := o.guard.ValidateAccess(ctx, token, []string{in.OrgUUID}); err != nil {
		return nil, err
	}

	req, err := o.uploadTarget(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := o.transition(req, model.StateDownloaded); err != nil {
		return nil, err
	}
	if err := o.store.Put(ctx, req); err != nil {
		return nil, fmt.Errorf("сохранение заявки %s: %w", req.ID, err)
	}
	o.logger.Info("Набор данных получен от Uploader",
		slog.String("id", req.ID),
		slog.String("title", req.Title),
	)

	o.enqueueMetadata(ctx, req, in.IDInObjectStore, in.ObjectStoreID, token)
	return req, nil
}

// uploadTarget возвращает существующую заявку с in.ID или новую.
// Заявка в FINISHED или ERROR заменяется новой с тем же id.
func (o *Orchestrator) uploadTarget(ctx context.Context, in UploadInput) (*model.AcquisitionRequest, error) {
	if in.ID != "" {
		existing, err := o.store.Get(ctx, in.ID)
		switch {
		case err == nil:
			if existing.OrgUUID != in.OrgUUID {
				return nil, newValidationError("orgUUID", "не совпадает с организацией существующей заявки")
			}
			if !existing.IsTerminal() {
				return existing, nil
			}
			o.logger.Info("Завершённая заявка заменяется загрузкой",
				slog.String("id", existing.ID),
				slog.String("state", string(existing.State)),
			)
		case !errors.Is(err, repository.ErrNotFound):
			return nil, err
		}
	}
	return model.NewAcquisitionRequest(in.ID, in.OrgUUID, in.Title, in.Source, in.Category, *in.PublicRequest), nil
}

// transition переводит заявку в target с текущим временем и учитывает метрику.
func (o *Orchestrator) transition(req *model.AcquisitionRequest, target model.State) error {
	from := req.State
	if err := req.TransitionTo(target, o.now()); err != nil {
		o.logger.Warn("Отклонён переход состояния",
			slog.String("id", req.ID),
			slog.String("from", string(from)),
			slog.String("to", string(target)),
		)
		return err
	}
	stateTransitionsTotal.WithLabelValues(string(from), string(target)).Inc()
	return nil
}

// enqueueMetadata ставит вызов Metadata Parser.
func (o *Orchestrator) enqueueMetadata(ctx context.Context, req *model.AcquisitionRequest, idInObjectStore, objectStoreID string, token downstream.Secret) {
	o.enqueue(ctx, dispatch.Job{
		URL: downstream.JoinURL(o.cfg.MetadataParserURL, downstream.MetadataParserPath),
		Body: downstream.MetadataRequest{
			OrgUUID:         req.OrgUUID,
			PublicRequest:   req.PublicRequest,
			Source:          req.Source,
			Category:        req.Category,
			Title:           req.Title,
			ID:              req.ID,
			CallbackURL:     MetadataCallbackURL(o.cfg.SelfURL, req.ID),
			IDInObjectStore: idInObjectStore,
			ObjectStoreID:   objectStoreID,
		},
		Token: token,
	})
}

// enqueue ставит задание. Ошибка только логируется: состояние уже сохранено.
func (o *Orchestrator) enqueue(ctx context.Context, job dispatch.Job) {
	if err := o.dispatcher.Submit(ctx, job); err != nil {
		o.logger.Error("Не удалось поставить исходящий вызов",
			slog.String("url", job.URL),
			slog.String("error", err.Error()),
		)
	}
}

// uniqueNonEmpty убирает пустые значения и дубликаты, сохраняя порядок.
func uniqueNonEmpty(items []string) []string {
	seen := make(map[string]bool, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		result = append(result, item)
	}
	return result
}
