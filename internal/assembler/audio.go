package assembler

import (
	"bytes"
	"fmt"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// musicVolume attenuates background music so it sits under the source audio.
const musicVolume = 0.2

// musicMixGraph builds the ffmpeg graph that overlays looped background music
// onto the concatenated reel. The music input loops indefinitely and the mix
// takes the video's duration, so the output audio always matches the video
// length exactly whether the track is shorter or longer. The video stream is
// copied untouched.
func (a *Assembler) musicMixGraph(videoPath, musicPath, outPath string) *ffmpeg.Stream {
	video := ffmpeg.Input(videoPath)
	music := ffmpeg.Input(musicPath, ffmpeg.KwArgs{"stream_loop": -1}).
		Audio().
		Filter("volume", ffmpeg.Args{fmt.Sprintf("%g", musicVolume)})

	mixed := ffmpeg.Filter(
		[]*ffmpeg.Stream{video.Audio(), music},
		"amix",
		ffmpeg.Args{},
		ffmpeg.KwArgs{"inputs": 2, "duration": "first"},
	)

	return ffmpeg.Output(
		[]*ffmpeg.Stream{video.Video(), mixed},
		outPath,
		ffmpeg.KwArgs{
			"c:v":      "copy",
			"c:a":      audioCodec,
			"shortest": "",
			"movflags": "+faststart",
		},
	)
}

func (a *Assembler) mixBackgroundAudio(videoPath, musicPath, outPath string) error {
	var stderr bytes.Buffer
	err := a.musicMixGraph(videoPath, musicPath, outPath).
		OverWriteOutput().
		WithErrorOutput(&stderr).
		Run()
	if err != nil {
		return &ProcessingError{Stage: "audio mixing", Err: ffmpegError(err, &stderr)}
	}
	return nil
}
