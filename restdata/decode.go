// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restdata

import (
	"bytes"
	"errors"
	"io"
	"io/ioutil"
	"mime"
	"reflect"

	"github.com/ugorji/go/codec"
)

// Decode tries to decode a restdata object from a reader, such as an
// HTTP request or response.  out must be a pointer type.  The body
// must hold exactly one JSON value, and a JSON object if out points
// at a struct.  Anything else produces ErrBadRequest.
func Decode(contentType string, r io.Reader, out interface{}) error {
	if contentType == "" {
		// RFC 7231 section 3.1.1.5
		// We could also consider http.DetectContentType()
		contentType = "application/octet-stream"
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ErrUnsupportedMediaType{Type: contentType}
	}

	// Every JSON type we know has the same encoding
	switch mediaType {
	case "text/json", "application/json", JSONMediaType, V1JSONMediaType:
	default:
		return ErrUnsupportedMediaType{Type: mediaType}
	}

	body, err := ioutil.ReadAll(r)
	if err != nil {
		return ErrBadRequest{Err: err}
	}
	if isStruct(out) && !bytes.HasPrefix(bytes.TrimSpace(body), []byte("{")) {
		return ErrBadRequest{Err: errNotObject}
	}

	// The decoder consumes the reader one byte at a time, so what
	// is left in it afterwards is exactly what followed the value.
	reader := bytes.NewReader(body)
	json := &codec.JsonHandle{}
	decoder := codec.NewDecoder(reader, json)
	err = decoder.Decode(out)
	if err != nil {
		return ErrBadRequest{Err: err}
	}
	rest, _ := ioutil.ReadAll(reader)
	if len(bytes.TrimSpace(rest)) > 0 {
		return ErrBadRequest{Err: errTrailingData}
	}
	return nil
}

var (
	errNotObject    = errors.New("Request body must be a JSON object")
	errTrailingData = errors.New("Unexpected data after JSON value")
)

func isStruct(out interface{}) bool {
	v := reflect.ValueOf(out)
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	return v.Kind() == reflect.Struct
}

// Encode writes a restdata object as JSON.
func Encode(w io.Writer, in interface{}) error {
	json := &codec.JsonHandle{}
	encoder := codec.NewEncoder(w, json)
	return encoder.Encode(in)
}
