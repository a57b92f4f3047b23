package service

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// SubmitInput — заявка на загрузку от клиента.
// PublicRequest — указатель, чтобы отличить false от отсутствия поля.
type SubmitInput struct {
	Title         string `json:"title" validate:"required"`
	OrgUUID       string `json:"orgUUID" validate:"required,excludes=:"`
	PublicRequest *bool  `json:"publicRequest" validate:"required"`
	Source        string `json:"source" validate:"required"`
	Category      string `json:"category" validate:"required"`
}

// UploadInput — уведомление Uploader о загруженном наборе данных.
// ID необязателен: при наличии обновляется существующая заявка.
// OrgUUID и ID не содержат model.KeySeparator.
type UploadInput struct {
	SubmitInput
	ID              string `json:"id" validate:"excludes=:"`
	IDInObjectStore string `json:"idInObjectStore" validate:"required"`
	ObjectStoreID   string `json:"objectStoreId"`
}

// DownloadCallbackInput — callback Downloader.
// Для state == DONE нужен хотя бы один идентификатор объекта.
type DownloadCallbackInput struct {
	ID            string `json:"id"`
	State         string `json:"state" validate:"required"`
	SavedObjectID string `json:"savedObjectId"`
	ObjectStoreID string `json:"objectStoreId"`
}

// MetadataCallbackInput — callback Metadata Parser.
type MetadataCallbackInput struct {
	State string `json:"state" validate:"required"`
}

// CallbackStateDone — успешный исход в callback внешних сервисов.
const CallbackStateDone = "DONE"

// newValidator создаёт валидатор, сообщающий имена полей из json-тегов.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
