package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/totem-backend/pkg/errors"
)

type receiptBody struct {
	CPF  string `json:"cpf" validate:"required,cpf"`
	Name string `json:"name" validate:"max=5"`
}

func TestDecodeJSONBody(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		wantErr bool
		field   string
	}{
		{name: "valid", body: `{"cpf":"529.982.247-25","name":"Ana"}`},
		{name: "bad cpf", body: `{"cpf":"111.111.111-11"}`, wantErr: true, field: "cpf"},
		{name: "name too long", body: `{"cpf":"52998224725","name":"Joaquim"}`, wantErr: true, field: "name"},
		{name: "unknown field", body: `{"cpf":"52998224725","x":1}`, wantErr: true},
		{name: "not json", body: `nope`, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var dest receiptBody
			err := DecodeJSONBody(httptest.NewRecorder(), req, &dest)
			if !tc.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if tc.field == "" {
				return
			}
			details, ok := pkgerrors.As(err).Details().(map[string]string)
			if !ok {
				t.Fatalf("expected field details, got %#v", pkgerrors.As(err).Details())
			}
			if _, ok := details[tc.field]; !ok {
				t.Fatalf("expected %s in details, got %v", tc.field, details)
			}
		})
	}
}

func TestDecodeJSONBodyRejectsOversizedPayload(t *testing.T) {
	body := `{"cpf":"` + strings.Repeat("1", maxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	var dest receiptBody
	err := DecodeJSONBody(httptest.NewRecorder(), req, &dest)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
