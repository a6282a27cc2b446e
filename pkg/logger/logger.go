// Package logger provides plain stdlib loggers for components that
// echo raw HTTP exchanges, where structured key=value output would
// only obscure the response body.
package logger

import (
	"io"
	"log"
	"os"
)

// New returns a logger prefixed with the component name.
func New(component string) *log.Logger {
	return NewWithWriter(os.Stdout, component)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, component string) *log.Logger {
	return log.New(w, component+": ", log.LstdFlags|log.Lmsgprefix)
}
