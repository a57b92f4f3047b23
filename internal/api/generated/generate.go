package generated

// Типы и chi-сервер по контракту internal/api/openapi/openapi.yaml.
//go:generate go run github.com/oapi-codegen/oapi-codegen/v2/cmd/oapi-codegen@v2.4.1 --config=oapi-codegen.yaml ../openapi/openapi.yaml
