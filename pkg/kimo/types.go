package kimo

import (
	"github.com/hejijunhao/kimo/internal/dispatch"
	"github.com/hejijunhao/kimo/internal/model"
	"github.com/hejijunhao/kimo/internal/sink"
	"github.com/hejijunhao/kimo/internal/theme"
)

// Input variants accepted by Dispatch.
type (
	Input       = model.Input
	ImageUpload = model.ImageUpload
	TextUpload  = model.TextUpload
	Drawing     = model.Drawing
	Voice       = model.Voice
	Submit      = model.Submit
)

// Session history types.
type (
	Entry      = model.SessionEntry
	EntryType  = model.EntryType
	Prediction = model.Prediction
)

type (
	Result = dispatch.Result
	Block  = sink.Block
	Sink   = sink.Sink
	Theme  = theme.Theme
)

// FromUpload maps an uploaded file to its input variant; ok is false for
// unsupported media types.
func FromUpload(name, mediaType string, data []byte) (Input, bool) {
	return model.FromUpload(name, mediaType, data)
}

// DegradedNotice is shown once when model loading failed at startup.
const DegradedNotice = dispatch.MsgDegraded
