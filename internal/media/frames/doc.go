// Package frames decodes video frames, selects the ones inspected for text
// and crops them to the subtitle band.
//
// Source is the frame-source collaborator: sequential decode, stream
// metadata and a seek used only by interactive tooling. FFmpegSource is the
// production implementation; it probes with ffprobe and decodes raw RGBA
// frames from an ffmpeg pipe. Sampler applies the inspection cadence and the
// Region crop on top of any Source.
package frames
