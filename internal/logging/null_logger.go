package logging

import "github.com/vvka-141/ddlstore/pkg/ddlstore"

// NullLogger drops everything.
type NullLogger struct{}

func NewNullLogger() *NullLogger { return &NullLogger{} }

func (*NullLogger) Verbose(string, ...interface{}) {}
func (*NullLogger) Info(string, ...interface{})    {}
func (*NullLogger) Error(string, ...interface{})   {}

var (
	_ ddlstore.Logger = (*NullLogger)(nil)
	_ ddlstore.Logger = (*ConsoleLogger)(nil)
)
