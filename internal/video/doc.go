// Package video turns slides and narration into clips and joins the clips
// into the final video. All encoding and probing is done by the ffmpeg and
// ffprobe binaries through an executor.Executor.
package video
