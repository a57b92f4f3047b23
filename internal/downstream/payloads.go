package downstream

import "strings"

// Пути внешних сервисов относительно их базовых URL.
const (
	DownloaderPath     = "/rest/downloader/requests"
	MetadataParserPath = "/rest/metadata"
)

// DownloadRequest — тело запроса к Downloader.
type DownloadRequest struct {
	Source   string `json:"source"`
	Callback string `json:"callback"`
}

// MetadataRequest — тело запроса к Metadata Parser.
// IDInObjectStore не передаётся для источников в распределённой ФС:
// Metadata Parser извлекает его из URI самостоятельно.
type MetadataRequest struct {
	OrgUUID         string `json:"orgUUID"`
	PublicRequest   bool   `json:"publicRequest"`
	Source          string `json:"source"`
	Category        string `json:"category"`
	Title           string `json:"title"`
	ID              string `json:"id"`
	CallbackURL     string `json:"callbackUrl"`
	IDInObjectStore string `json:"idInObjectStore,omitempty"`
	ObjectStoreID   string `json:"objectStoreId,omitempty"`
}

// JoinURL склеивает базовый URL и путь без двойных слэшей.
func JoinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
