// Package api provides the status REST API of the chain indexer
// @title Chain Indexer API
// @version 1.0
// @description REST API reporting the status of managed indexes and restarting failed ones
// @license.name Apache 2.0
// @license.url https://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8080
// @basePath /api/v1
// @schemes http https
package api
