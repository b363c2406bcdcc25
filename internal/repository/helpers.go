package repository

import (
	"github.com/dmitrymomot/condokit/pkg/pg"
)

func isNoRows(err error) bool { return pg.IsNotFoundError(err) }

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
