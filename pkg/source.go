package gainhists

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// EventSource streams the events of an input dataset. Scan can be called
// more than once and always starts from the first event; the Event passed
// to fn is only valid during the call.
type EventSource interface {
	Scan(fn func(evt *Event) error) error
	Close() error
}

const (
	InputROOT   = "root"
	InputSQLite = "sqlite"
	InputMySQL  = "mysql"
)

// OpenSource opens the input described by the configuration.
func OpenSource(config Configuration) (EventSource, error) {
	switch config.InputFormat {
	case InputROOT, "":
		return OpenROOTSource(config.FileIn, config.TreeName)
	case InputSQLite:
		if err := checkInput(config.FileIn); err != nil {
			return nil, err
		}
		db, err := ConnectToSQLite(config.FileIn)
		if err != nil {
			return nil, &ErrOpenFile{Filename: config.FileIn, Err: err}
		}
		return NewSQLSource(db, config.FileIn)
	case InputMySQL:
		db, err := ConnectToDatabase(config.User, config.Passwd, config.Host, config.DBName)
		if err != nil {
			return nil, fmt.Errorf("%w: error connecting to database %s: %v", ErrInputNotFound, config.DBName, err)
		}
		return NewSQLSource(db, config.DBName)
	}
	return nil, fmt.Errorf("%w: unknown input format %q", ErrInvalidConfig, config.InputFormat)
}

func checkInput(filename string) error {
	_, err := os.Stat(filename)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return &ErrOpenFile{Filename: filename, Err: fmt.Errorf("%w: %v", ErrInputNotFound, err)}
	}
	return &ErrOpenFile{Filename: filename, Err: err}
}

// limitSource stops a scan after a maximum number of events.
type limitSource struct {
	EventSource
	max int64
}

var errLimitReached = errors.New("event limit reached")

func LimitEvents(src EventSource, max int64) EventSource {
	if max <= 0 {
		return src
	}
	return &limitSource{EventSource: src, max: max}
}

func (l *limitSource) Scan(fn func(evt *Event) error) error {
	var n int64
	err := l.EventSource.Scan(func(evt *Event) error {
		if n >= l.max {
			return errLimitReached
		}
		n++
		return fn(evt)
	})
	if errors.Is(err, errLimitReached) {
		return nil
	}
	return err
}
