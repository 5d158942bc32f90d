package edgedriver

import "github.com/golang/glog"

// Logger is the logging handle used by the Provisioner. The default
// implementation forwards to glog, so the process-wide glog flags
// (-log_dir, -alsologtostderr, -v) control where output lands.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// GLog returns a Logger backed by glog.
func GLog() Logger { return glogLogger{} }

type glogLogger struct{}

func (glogLogger) Debugf(format string, args ...interface{})   { glog.V(1).Infof(format, args...) }
func (glogLogger) Infof(format string, args ...interface{})    { glog.Infof(format, args...) }
func (glogLogger) Warningf(format string, args ...interface{}) { glog.Warningf(format, args...) }
func (glogLogger) Errorf(format string, args ...interface{})   { glog.Errorf(format, args...) }
