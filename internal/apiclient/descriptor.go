package apiclient

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// SupportedMethods lists the verbs a Descriptor may use.
var SupportedMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodDelete,
	http.MethodPatch,
	http.MethodHead,
	http.MethodOptions,
}

var validate = validator.New()

// Descriptor describes a single API call. It is not retained after Send returns.
type Descriptor struct {
	Method string `validate:"required,oneof=GET POST PUT DELETE PATCH HEAD OPTIONS"`
	URL    string `validate:"required"`
	// Body is JSON-encoded and attached only for POST and PUT.
	Body any `validate:"-"`
}

// Get returns a GET descriptor for url.
func Get(url string) Descriptor {
	return Descriptor{Method: http.MethodGet, URL: url}
}

// Post returns a POST descriptor for url carrying body.
func Post(url string, body any) Descriptor {
	return Descriptor{Method: http.MethodPost, URL: url, Body: body}
}

// Put returns a PUT descriptor for url carrying body.
func Put(url string, body any) Descriptor {
	return Descriptor{Method: http.MethodPut, URL: url, Body: body}
}

// Delete returns a DELETE descriptor for url.
func Delete(url string) Descriptor {
	return Descriptor{Method: http.MethodDelete, URL: url}
}

// Validate checks the descriptor. An unknown method yields ErrUnsupportedMethod.
func (d Descriptor) Validate() error {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Field() == "Method" {
				return fmt.Errorf("%w: %q", ErrUnsupportedMethod, d.Method)
			}
		}
	}
	return fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
}

// carriesBody reports whether the body should be sent with this method.
func (d Descriptor) carriesBody() bool {
	return d.Body != nil && (d.Method == http.MethodPost || d.Method == http.MethodPut)
}
