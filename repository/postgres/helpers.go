package postgres

import "time"

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

type scanner interface {
	Scan(dest ...interface{}) error
}
