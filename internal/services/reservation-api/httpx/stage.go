package httpx

import "net/http"

// Stage is one step of the request pipeline. A stage either calls next or
// writes a terminal response itself.
type Stage func(next http.Handler) http.Handler

// Chain wraps h so that stages run in the given order, first one outermost.
func Chain(h http.Handler, stages ...Stage) http.Handler {
	for i := len(stages) - 1; i >= 0; i-- {
		if stages[i] != nil {
			h = stages[i](h)
		}
	}
	return h
}
