// Package kimo provides a multi-modal assistant: uploaded images are
// classified and read for handwriting, text files are scored for
// plagiarism, drawings are recognized, and typed questions are routed to
// web search or a generative model. Every completed interaction is
// appended to a persisted session history.
//
// Quick start:
//
//	a, err := kimo.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer a.Close()
//	if err := a.Degraded(); err != nil {
//	    fmt.Println(kimo.DegradedNotice)
//	}
//
//	res := a.Dispatch(ctx, kimo.Submit{Text: "capital of France"})
//	for _, b := range res.Blocks {
//	    fmt.Println(b.Text)
//	}
//
// The Assistant is safe for concurrent use.
package kimo
