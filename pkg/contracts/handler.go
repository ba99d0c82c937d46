package contracts

import "github.com/julienschmidt/httprouter"

// Handler is implemented by every HTTP module that registers routes.
type Handler interface {
	RegisterRoutes(router *httprouter.Router)
}
