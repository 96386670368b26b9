package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
)

// FormPart is a multipart/form-data segment to encode.
type FormPart struct {
	Name     string
	Filename string
	Headers  Headers
	Body     []byte
}

// FormField returns a plain form field part.
func FormField(name, value string) FormPart {
	return FormPart{Name: name, Body: []byte(value)}
}

// FormFile reads path into a file part named after the file.
func FormFile(name, path string) (FormPart, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FormPart{}, err
	}
	return FormPart{Name: name, Filename: filepath.Base(path), Body: data}, nil
}

// ForEachMultipartPart calls onPart once per segment of a multipart body, in
// order. The boundary is taken from the message's Content-Type header.
func ForEachMultipartPart(msg Message, onPart func(*ActualPart) error) error {
	ct, ok, err := msg.Headers.ContentType()
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("multipart body has no Content-Type header")
	}
	if !strings.HasPrefix(strings.ToLower(ct.MediaType), "multipart/") {
		return fmt.Errorf("expected a multipart content type, got %q", ct.MediaType)
	}
	boundary, ok := ct.Param("boundary")
	if !ok || boundary == "" {
		return fmt.Errorf("content type %q has no boundary", ct.String())
	}

	reader := multipart.NewReader(bytes.NewReader(msg.Body), boundary)
	for {
		// Raw parts keep Content-Transfer-Encoding untouched.
		part, err := reader.NextRawPart()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read multipart body: %w", err)
		}
		body, err := io.ReadAll(part)
		if err != nil {
			return fmt.Errorf("failed to read multipart part: %w", err)
		}
		actual := &ActualPart{
			Message: Message{Headers: headersFromMIME(part.Header), Body: body},
		}
		actual.Name, actual.Filename = parseContentDisposition(part.Header.Get("Content-Disposition"))
		if err := onPart(actual); err != nil {
			return err
		}
	}
}

// ReadMultipartParts collects every segment of a multipart body.
func ReadMultipartParts(msg Message) ([]*ActualPart, error) {
	var parts []*ActualPart
	err := ForEachMultipartPart(msg, func(p *ActualPart) error {
		parts = append(parts, p)
		return nil
	})
	return parts, err
}

// BuildMultipartBody encodes parts as multipart/form-data and returns the body
// together with its Content-Type.
func BuildMultipartBody(parts []FormPart) ([]byte, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, p := range parts {
		header := make(textproto.MIMEHeader)
		for name, values := range p.Headers {
			for _, v := range values {
				header.Add(name, v)
			}
		}
		disposition := fmt.Sprintf(`form-data; name="%s"`, escapeQuotes(p.Name))
		if p.Filename != "" {
			disposition += fmt.Sprintf(`; filename="%s"`, escapeQuotes(p.Filename))
		}
		header.Set("Content-Disposition", disposition)

		w, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", err
		}
		if _, err := w.Write(p.Body); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body.Bytes(), writer.FormDataContentType(), nil
}

func headersFromMIME(h textproto.MIMEHeader) Headers {
	result := make(Headers, len(h))
	for k, v := range h {
		result[k] = append([]string(nil), v...)
	}
	return result
}

func parseContentDisposition(value string) (string, *string) {
	if value == "" {
		return "", nil
	}
	_, params, err := mime.ParseMediaType(value)
	if err != nil {
		return "", nil
	}
	var filename *string
	if f, ok := params["filename"]; ok {
		filename = &f
	}
	return params["name"], filename
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
