package logging

import (
	"sync"

	"go.uber.org/zap/zapcore"
)

// outputSyncer remembers the first write failure on the log output.
type outputSyncer struct {
	zapcore.WriteSyncer

	mu  sync.Mutex
	err error
}

func (o *outputSyncer) Write(p []byte) (int, error) {
	n, err := o.WriteSyncer.Write(p)
	if err != nil {
		o.mu.Lock()
		if o.err == nil {
			o.err = err
		}
		o.mu.Unlock()
	}
	return n, err
}

func (o *outputSyncer) failure() error {
	if o == nil {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}
