// @title           DB8 Agent API
// @version         1.0
// @description     Real-estate listings with generated Brazilian Portuguese marketing copy and credit-gated publishing.
// @BasePath        /
package api
