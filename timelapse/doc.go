// Package timelapse assembles an ordered sequence of still images into a
// single video file.
//
// Each source is decoded to RGBA (raw camera files through an external raw
// developer, everything else through the standard image codecs), stretched
// to the run's target size and streamed to ffmpeg in source order. The target
// size comes from the size preset and the first image. A file that cannot be
// decoded is skipped, except the first one, which has to establish the size.
//
// A Runner allows one run at a time and reports progress on a channel of
// Events.
package timelapse
