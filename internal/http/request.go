package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	"github.com/tuanvumaihuynh/nfcstore/internal/apperr"
	"github.com/tuanvumaihuynh/nfcstore/internal/http/apierr"
)

const maxJSONBytes = 1 << 20 // 1 MB

// decodeJSON reads a single JSON object into dst. An empty body leaves dst
// untouched; anything after the object other than whitespace is rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBytes))
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, io.ErrUnexpectedEOF):
			return apperr.BadRequestErr.WithMsg("JSON parse error: unexpected end of input").WrapParent(err)
		case errors.As(err, &maxErr):
			return apperr.BadRequestErr.WithMsg("request body too large").WrapParent(err)
		default:
			return fmt.Errorf("decode json body: %w", err)
		}
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperr.BadRequestErr.WithMsg("JSON parse error: unexpected data after the request body")
	}
	return nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	var id uuid.UUID
	if err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &id,
		runtime.BindStyledParameterOptions{
			ParamLocation: runtime.ParamLocationPath,
			Explode:       false,
			Required:      true,
		}); err != nil {
		return uuid.Nil, &apierr.ParamError{Param: name, Err: err}
	}
	return id, nil
}
