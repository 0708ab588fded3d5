// Package recording captures rendered frames and encodes them to files.
//
// A Recorder scales each captured frame by an integer factor and hands it
// to an Encoder. Encoders are registered by name following the
// database/sql driver pattern; "gif" (animated) and "png" (last frame) are
// built in.
//
// # Basic Usage
//
//	rec, err := recording.NewRecorder("gif",
//	    recording.WithScale(4),
//	    recording.WithFrameDelay(100*time.Millisecond),
//	    recording.WithPalette(bg, alive, cursor))
//	if err != nil {
//	    return err
//	}
//	for range generations {
//	    sim.Redraw(surface)
//	    rec.Capture(surface.Image())
//	}
//	err = rec.SaveToFile("run.gif")
//
// # Encoder Registration
//
//	func init() {
//	    recording.Register("webp", func() recording.Encoder {
//	        return newWebPEncoder()
//	    })
//	}
package recording
