package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/karkyon/dump-tracker-system-sub000/internal/domain"
)

// ActorHeader carries the id of the user triggering a request. Requests
// without it are attributed to the nil UUID.
const ActorHeader = "X-Actor-ID"

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

const dateLayout = "2006-01-02"

// writeJSON encodes v as the response body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a single JSON object into v. Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return domain.Errorf(domain.EINVALID, "", "request body is empty")
		case errors.As(err, &maxErr):
			return domain.Errorf(domain.EINVALID, "", "request body exceeds %d bytes", maxErr.Limit)
		default:
			return domain.Errorf(domain.EINVALID, "", "malformed JSON: %v", err)
		}
	}
	if dec.More() {
		return domain.Errorf(domain.EINVALID, "", "request body must contain a single JSON object")
	}
	return nil
}

// actorID returns the acting user from the ActorHeader.
func actorID(r *http.Request) (uuid.UUID, error) {
	raw := r.Header.Get(ActorHeader)
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.NewValidationError("", ActorHeader, "must be a UUID")
	}
	return id, nil
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// =============================================================================
// Query Parameters
// =============================================================================

// queryParser collects field errors while reading query parameters.
type queryParser struct {
	r      *http.Request
	fields map[string]string
}

func newQueryParser(r *http.Request) *queryParser {
	return &queryParser{r: r, fields: map[string]string{}}
}

func (p *queryParser) fail(name, message string) {
	p.fields[name] = message
}

// err returns the collected field errors, or nil.
func (p *queryParser) err() error {
	if len(p.fields) == 0 {
		return nil
	}
	return &domain.ValidationError{Fields: p.fields}
}

func (p *queryParser) uuid(name string) *uuid.UUID {
	raw := p.r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		p.fail(name, "must be a UUID")
		return nil
	}
	return &id
}

func (p *queryParser) int(name string) int {
	raw := p.r.URL.Query().Get(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		p.fail(name, "must be a non-negative integer")
		return 0
	}
	return n
}

// time accepts RFC 3339 timestamps or plain YYYY-MM-DD dates (UTC midnight).
func (p *queryParser) time(name string) *time.Time {
	raw := p.r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return &t
	}
	p.fail(name, "must be an RFC 3339 timestamp or YYYY-MM-DD date")
	return nil
}

func (p *queryParser) inspectionType(name string) *domain.InspectionType {
	raw := p.r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	t := domain.InspectionType(raw)
	if !t.IsValid() {
		p.fail(name, fmt.Sprintf("unknown inspection type %q", raw))
		return nil
	}
	return &t
}

func (p *queryParser) inspectionStatus(name string) *domain.InspectionStatus {
	raw := p.r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	s := domain.InspectionStatus(raw)
	if !s.IsValid() {
		p.fail(name, fmt.Sprintf("unknown inspection status %q", raw))
		return nil
	}
	return &s
}

func (p *queryParser) eventKind(name string) *domain.EventKind {
	raw := p.r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	for _, k := range domain.EventKinds {
		if string(k) == raw {
			return &k
		}
	}
	p.fail(name, fmt.Sprintf("unknown event kind %q", raw))
	return nil
}
