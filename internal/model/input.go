package model

import (
	"image"
	"strings"
)

// InputKind identifies an input variant.
type InputKind int

const (
	KindImage InputKind = iota
	KindText
	KindDrawing
	KindVoice
	KindSubmit
)

func (k InputKind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindText:
		return "text"
	case KindDrawing:
		return "drawing"
	case KindVoice:
		return "voice"
	case KindSubmit:
		return "submit"
	default:
		return "unknown"
	}
}

// Input is a raw user event after the front-end has mapped it to a variant.
type Input interface {
	Kind() InputKind
}

// ImageUpload is an uploaded file with an image/* media type.
type ImageUpload struct {
	Name      string
	MediaType string
	Data      []byte
}

func (ImageUpload) Kind() InputKind { return KindImage }

// TextUpload is an uploaded file with the text/plain media type.
type TextUpload struct {
	Name      string
	MediaType string
	Data      []byte
}

func (TextUpload) Kind() InputKind { return KindText }

// Drawing is an explicit recognize action on the current canvas bitmap.
type Drawing struct {
	Canvas image.Image
}

func (Drawing) Kind() InputKind { return KindDrawing }

// Voice carries either a ready transcript (browser speech API) or raw audio
// to be transcribed. It never produces a log entry on its own.
type Voice struct {
	Transcript string
	Audio      []byte
	MediaType  string
}

func (Voice) Kind() InputKind { return KindVoice }

// Submit is free text submitted from the input field.
type Submit struct {
	Text string
}

func (Submit) Kind() InputKind { return KindSubmit }

// MediaTypePlainText is the only text media type accepted for uploads.
const MediaTypePlainText = "text/plain"

// FromUpload maps an uploaded file to its input variant. Files that are
// neither image/* nor exactly text/plain are ignored (ok is false).
func FromUpload(name, mediaType string, data []byte) (in Input, ok bool) {
	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return ImageUpload{Name: name, MediaType: mediaType, Data: data}, true
	case mediaType == MediaTypePlainText:
		return TextUpload{Name: name, MediaType: mediaType, Data: data}, true
	default:
		return nil, false
	}
}
