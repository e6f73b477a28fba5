package builderprofile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// エラー定義
var (
	ErrInvalidInput      = errors.New("invalid action input")
	ErrUnknownAction     = errors.New("unknown action type")
	ErrInvalidState      = errors.New("invalid builder profile state")
	ErrNotBuilderProfile = errors.New("document is not a builder profile")
)

// ValidationError は入力検証の失敗を表す
type ValidationError struct {
	Action string
	Fields []string // "field: rule" 形式
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s input: %s", e.Action, strings.Join(e.Fields, ", "))
}

// Unwrap はErrInvalidInputを返す
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// DescriptionTooLongError はdescriptionが上限を超えたことを表す
type DescriptionTooLongError struct {
	Length int
}

func (e *DescriptionTooLongError) Error() string {
	return fmt.Sprintf("Description exceeds maximum length of %d characters (%d provided)", DescriptionMaxLength, e.Length)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateInput は構造体タグに基づいて入力を検証する
func ValidateInput(actionType string, input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s: %s", jsonFieldName(fe), fe.Tag()))
	}
	return &ValidationError{Action: actionType, Fields: fields}
}

// jsonFieldName はエラー表示用にフィールド名の先頭を小文字にする
func jsonFieldName(fe validator.FieldError) string {
	name := fe.Field()
	switch name {
	case "ID":
		return "id"
	case "URL":
		return "url"
	case "ContributorPHID":
		return "contributorPHID"
	}
	if name == "" {
		return name
	}
	r, size := utf8.DecodeRuneInString(name)
	return strings.ToLower(string(r)) + name[size:]
}

// decodeInput はJSON入力を構造体にデコードして検証する
func decodeInput(actionType string, raw json.RawMessage, dst any) error {
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		raw = json.RawMessage(`{}`)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &ValidationError{Action: actionType, Fields: []string{err.Error()}}
	}
	return ValidateInput(actionType, dst)
}

// validateDescription はdescriptionの文字数上限を検証する
func validateDescription(desc *string) error {
	if desc == nil {
		return nil
	}
	if n := utf8.RuneCountInString(*desc); n > DescriptionMaxLength {
		return &DescriptionTooLongError{Length: n}
	}
	return nil
}
