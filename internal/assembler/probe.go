package assembler

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// ClipInfo holds the stream properties the assembler needs from a source file.
type ClipInfo struct {
	Duration float64
	Width    int
	Height   int
	HasAudio bool
}

// ffprobeOutput mirrors the JSON structure emitted by ffprobe.
type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

type ffprobeStream struct {
	CodecType  string `json:"codec_type"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Duration   string `json:"duration"`
	RFrameRate string `json:"r_frame_rate"`
	NbFrames   string `json:"nb_frames"`
}

// Probe extracts duration, dimensions, and audio presence from a media file.
func Probe(path string) (*ClipInfo, error) {
	raw, err := ffmpeg.Probe(path)
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed for %s: %w", path, err)
	}
	return parseProbeOutput(raw)
}

func parseProbeOutput(raw string) (*ClipInfo, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := &ClipInfo{}

	for _, stream := range probe.Streams {
		switch stream.CodecType {
		case "video":
			if info.Width == 0 {
				info.Width = stream.Width
				info.Height = stream.Height
			}
			if info.Duration == 0 && stream.Duration != "" {
				info.Duration, _ = strconv.ParseFloat(strings.TrimSpace(stream.Duration), 64)
			}
			// Some containers omit stream duration; derive it from the frame
			// count and rate as a fallback.
			if info.Duration == 0 && stream.NbFrames != "" {
				frames, _ := strconv.ParseFloat(stream.NbFrames, 64)
				if rate := parseFrameRate(stream.RFrameRate); rate > 0 {
					info.Duration = frames / rate
				}
			}
		case "audio":
			info.HasAudio = true
		}
	}

	if info.Duration == 0 && probe.Format.Duration != "" {
		info.Duration, _ = strconv.ParseFloat(strings.TrimSpace(probe.Format.Duration), 64)
	}

	if info.Width == 0 || info.Height == 0 {
		return nil, fmt.Errorf("no video stream found")
	}
	if info.Duration <= 0 {
		return nil, fmt.Errorf("could not determine video duration")
	}
	return info, nil
}

// parseFrameRate parses frame rate from ffprobe format (e.g. "60/1" -> 60.0).
func parseFrameRate(value string) float64 {
	parts := strings.Split(value, "/")
	if len(parts) == 2 {
		num, _ := strconv.ParseFloat(parts[0], 64)
		den, _ := strconv.ParseFloat(parts[1], 64)
		if den != 0 {
			return num / den
		}
	}
	rate, _ := strconv.ParseFloat(value, 64)
	return rate
}
