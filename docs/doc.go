// Package docs provides generated OpenAPI documentation.
//
// Wikiquiz API
//
//	@title			Wikiquiz API
//	@version		1.0
//	@description	Quiz generation API for encyclopedia articles: page data, the message protocol, and provider status.
//
//	@contact.name	API Support
//	@contact.url	https://github.com/wikiquiz/wikiquiz
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http
package docs

//go:generate swag init -g ../cmd/wikiquiz/serve.go -o ./swagger --parseDependency --parseInternal
