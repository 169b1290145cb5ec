package narration

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/hairizuan-noorazman/demo-recorder/logger"
)

const (
	edgeSynthURL  = "wss://speech.platform.bing.com/consumer/speech/synthesize/readaloud/edge/v1"
	edgeVoicesURL = "https://speech.platform.bing.com/consumer/speech/synthesize/readaloud/voices/list"

	edgeClientToken  = "6A5AA1D4EAFF4E9FB37E23D68491D6F4"
	edgeOutputFormat = "audio-24khz-48kbitrate-mono-mp3"
	edgeOrigin       = "chrome-extension://jdiccldimpdaibmpdkjnbmckianbfold"
)

// EdgeEngine streams speech from the Edge read-aloud service over a
// websocket. Audio arrives as binary MP3 frames; word-boundary timing events
// arrive as JSON metadata messages interleaved with the audio.
type EdgeEngine struct {
	Voice string
	Rate  string

	dialer *websocket.Dialer
	client *http.Client
	logger logger.Logger
}

// NewEdgeEngine creates an engine for the given voice and rate adjustment
// (e.g. "en-US-AriaNeural", "+0%").
func NewEdgeEngine(voice, rate string, log logger.Logger) *EdgeEngine {
	return &EdgeEngine{
		Voice:  voice,
		Rate:   rate,
		dialer: &websocket.Dialer{HandshakeTimeout: 15 * time.Second},
		client: &http.Client{Timeout: 15 * time.Second},
		logger: log,
	}
}

type wordBoundary struct {
	// Offset and Duration are in 100-nanosecond ticks.
	Offset   int64
	Duration int64
	Text     string
}

type metadataMessage struct {
	Metadata []struct {
		Type string `json:"Type"`
		Data struct {
			Offset   int64 `json:"Offset"`
			Duration int64 `json:"Duration"`
			Text     struct {
				Text string `json:"Text"`
			} `json:"text"`
		} `json:"Data"`
	} `json:"Metadata"`
}

var ssmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"'", "&apos;",
	`"`, "&quot;",
)

// Synthesize renders text to MP3 at outPath and measures its duration.
// Duration tiers, most accurate first: the end offset of the final
// word-boundary event, MP3 frame parsing, size estimation (marked Estimated).
func (e *EdgeEngine) Synthesize(ctx context.Context, text, outPath string) (Result, error) {
	audio, boundaries, err := e.stream(ctx, text)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}
	if len(audio) == 0 {
		return Result{}, ErrNoAudio
	}

	if err := os.WriteFile(outPath, audio, 0644); err != nil {
		return Result{}, fmt.Errorf("failed to write audio clip: %w", err)
	}

	res := Result{AudioPath: outPath}
	var tier string
	res.Duration, res.Estimated, tier = measureDuration(audio, boundaries)

	e.logger.Debug(ctx, "synthesized narration", map[string]interface{}{
		"bytes":      len(audio),
		"boundaries": len(boundaries),
		"duration":   res.Duration.String(),
		"tier":       tier,
	})
	return res, nil
}

// measureDuration picks the best available duration for a clip and names the
// tier that produced it.
func measureDuration(audio []byte, boundaries []wordBoundary) (time.Duration, bool, string) {
	if n := len(boundaries); n > 0 {
		last := boundaries[n-1]
		// Ticks are 100ns; divide by 10,000 for milliseconds.
		ms := (last.Offset + last.Duration) / 10_000
		return time.Duration(ms) * time.Millisecond, false, "word-boundary"
	}
	if dur, err := MP3Duration(audio); err == nil {
		return dur, false, "mp3-frames"
	}
	return EstimateDuration(len(audio)), true, "size-estimate"
}

// stream drives one synthesis round trip: speech.config, then the SSML
// request, then audio/metadata messages until turn.end.
func (e *EdgeEngine) stream(ctx context.Context, text string) ([]byte, []wordBoundary, error) {
	connID := strings.ReplaceAll(uuid.NewString(), "-", "")
	wsURL := fmt.Sprintf("%s?TrustedClientToken=%s&ConnectionId=%s", edgeSynthURL, edgeClientToken, connID)

	header := http.Header{}
	header.Set("Origin", edgeOrigin)

	conn, _, err := e.dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return nil, nil, fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	timestamp := time.Now().UTC().Format("Mon Jan 02 2006 15:04:05 GMT+0000 (Coordinated Universal Time)")

	speechConfig := `{"context":{"synthesis":{"audio":{"metadataoptions":` +
		`{"sentenceBoundaryEnabled":"false","wordBoundaryEnabled":"true"},` +
		`"outputFormat":"` + edgeOutputFormat + `"}}}}`
	configMsg := "X-Timestamp:" + timestamp + "\r\n" +
		"Content-Type:application/json; charset=utf-8\r\n" +
		"Path:speech.config\r\n\r\n" + speechConfig
	if err := conn.WriteMessage(websocket.TextMessage, []byte(configMsg)); err != nil {
		return nil, nil, fmt.Errorf("send speech.config: %w", err)
	}

	requestID := strings.ReplaceAll(uuid.NewString(), "-", "")
	ssml := fmt.Sprintf(
		`<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='en-US'>`+
			`<voice name='%s'><prosody pitch='+0Hz' rate='%s' volume='+0%%'>%s</prosody></voice></speak>`,
		e.Voice, e.Rate, ssmlEscaper.Replace(text))
	ssmlMsg := "X-RequestId:" + requestID + "\r\n" +
		"Content-Type:application/ssml+xml\r\n" +
		"X-Timestamp:" + timestamp + "\r\n" +
		"Path:ssml\r\n\r\n" + ssml
	if err := conn.WriteMessage(websocket.TextMessage, []byte(ssmlMsg)); err != nil {
		return nil, nil, fmt.Errorf("send ssml: %w", err)
	}

	var audio []byte
	var boundaries []wordBoundary

	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return nil, nil, fmt.Errorf("read stream: %w", err)
		}

		switch msgType {
		case websocket.TextMessage:
			headers, body := splitMessage(data)
			path := headers["Path"]
			if path == "turn.end" {
				return audio, boundaries, nil
			}
			if path == "audio.metadata" {
				boundaries = append(boundaries, parseBoundaries(body)...)
			}

		case websocket.BinaryMessage:
			if len(data) < 2 {
				continue
			}
			headerLen := int(binary.BigEndian.Uint16(data[:2]))
			if len(data) < 2+headerLen {
				continue
			}
			head := string(data[2 : 2+headerLen])
			if strings.Contains(head, "Path:audio") {
				audio = append(audio, data[2+headerLen:]...)
			}
		}
	}
}

// splitMessage separates the \r\n-delimited header block of a text message
// from its body.
func splitMessage(data []byte) (map[string]string, []byte) {
	headers := make(map[string]string)
	raw := string(data)

	idx := strings.Index(raw, "\r\n\r\n")
	if idx < 0 {
		return headers, nil
	}

	for _, line := range strings.Split(raw[:idx], "\r\n") {
		if k, v, ok := strings.Cut(line, ":"); ok {
			headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}
	return headers, data[idx+4:]
}

func parseBoundaries(body []byte) []wordBoundary {
	var msg metadataMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil
	}

	var out []wordBoundary
	for _, m := range msg.Metadata {
		if m.Type != "WordBoundary" {
			continue
		}
		out = append(out, wordBoundary{
			Offset:   m.Data.Offset,
			Duration: m.Data.Duration,
			Text:     m.Data.Text.Text,
		})
	}
	return out
}

type voiceEntry struct {
	ShortName string `json:"ShortName"`
	Gender    string `json:"Gender"`
	Locale    string `json:"Locale"`
}

// ListVoices fetches the engine's voice catalog, filtered by a locale prefix
// such as "en" or "fr-FR", sorted by locale then name.
func (e *EdgeEngine) ListVoices(ctx context.Context, localePrefix string) ([]Voice, error) {
	url := edgeVoicesURL + "?trustedclienttoken=" + edgeClientToken

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch voice catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("voice catalog request failed (%d): %s", resp.StatusCode, body)
	}

	var entries []voiceEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode voice catalog: %w", err)
	}

	prefix := strings.ToLower(localePrefix)
	var voices []Voice
	for _, v := range entries {
		if !strings.HasPrefix(strings.ToLower(v.Locale), prefix) {
			continue
		}
		voices = append(voices, Voice{Name: v.ShortName, Gender: v.Gender, Locale: v.Locale})
	}

	sort.Slice(voices, func(i, j int) bool {
		if voices[i].Locale != voices[j].Locale {
			return voices[i].Locale < voices[j].Locale
		}
		return voices[i].Name < voices[j].Name
	})
	return voices, nil
}

// ProbeEndpoint checks that the speech service answers at all, without
// synthesizing anything. Used by the preflight checks.
func ProbeEndpoint(ctx context.Context) error {
	url := edgeVoicesURL + "?trustedclienttoken=" + edgeClientToken

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("speech endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("speech endpoint returned %d", resp.StatusCode)
	}
	return nil
}
