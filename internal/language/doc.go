// Package language normalizes the recognition language setting.
//
// Configuration accepts short names ("ch", "en"), ISO 639 codes, and English
// words. Engines need their own spelling: tesseract wants traineddata names
// such as chi_sim, and the display layer wants a readable name.
package language
