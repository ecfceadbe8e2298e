// Package recognition adapts external text-recognition engines to per-frame
// observations.
//
// A Recognizer returns raw detections for one image. The Adapter performs
// exactly one Recognizer call per inspected frame, filters the detections by
// confidence and length, and joins the survivors into a single observation.
// Engine failures on a single frame become empty observations; only context
// cancellation escapes. Engines are external processes: CommandRecognizer
// speaks a small JSON protocol over stdin/stdout and TesseractRecognizer
// drives the tesseract CLI directly.
package recognition
