// Package generated はOpenAPI定義から生成されたサーバーコードを保持する
// 再生成: go generate ./internal/generated
package generated

//go:generate go run github.com/oapi-codegen/oapi-codegen/v2/cmd/oapi-codegen --config=oapi-codegen.yaml ../../api/openapi.yaml
