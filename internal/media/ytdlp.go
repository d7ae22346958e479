package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/linkpi14/transcript-v11/internal/storage"
)

// downloadBase is the name yt-dlp gives the file it writes; the extension
// depends on the selected format.
const downloadBase = "audio"

var ErrNoDownload = errors.New("no downloaded audio found")

func downloadArgs(url, dir string) []string {
	return []string{
		"-f", "bestaudio",
		"--no-playlist",
		"--no-progress",
		"-o", filepath.Join(dir, downloadBase+".%(ext)s"),
		url,
	}
}

func streamArgs(url string) []string {
	return []string{
		"-f", "bestaudio",
		"--no-playlist",
		"--quiet",
		"-o", "-",
		url,
	}
}

func streamEncodeArgs(output string) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", "pipe:0",
		"-vn",
		"-ar", SampleRate,
		"-ac", Channels,
		"-b:a", AudioBitrate,
		"-f", "mp3",
		"-y",
		output,
	}
}

// Download fetches the best audio-only format of url into dir and returns
// the path of the downloaded file.
func (t *Tools) Download(ctx context.Context, url, dir string) (string, error) {
	ctx, cancel := t.withTimeout(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.ytdlpBinary, downloadArgs(url, dir)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("yt-dlp: %s: %w", lastLine(out), err)
	}
	return FindDownloaded(dir)
}

// FindDownloaded locates the file yt-dlp produced inside dir, ignoring
// partial downloads.
func FindDownloaded(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, downloadBase+".") {
			continue
		}
		if storage.IsAudioFile(name) || storage.IsVideoFile(name) {
			return filepath.Join(dir, name), nil
		}
	}
	return "", ErrNoDownload
}

// StreamAudio pipes the audio-only stream of url straight into ffmpeg, which
// writes the normalized mp3 to output. Nothing else touches the disk.
func (t *Tools) StreamAudio(ctx context.Context, url, output string) error {
	ctx, cancel := t.withTimeout(ctx)
	defer cancel()

	pr, pw, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("create pipe: %w", err)
	}

	var dlErr, encErr bytes.Buffer
	dl := exec.CommandContext(ctx, t.ytdlpBinary, streamArgs(url)...)
	dl.Stdout = pw
	dl.Stderr = &dlErr

	enc := exec.CommandContext(ctx, t.ffmpegBinary, streamEncodeArgs(output)...)
	enc.Stdin = pr
	enc.Stderr = &encErr

	if err := enc.Start(); err != nil {
		pr.Close()
		pw.Close()
		return fmt.Errorf("start ffmpeg: %w", err)
	}
	if err := dl.Start(); err != nil {
		pr.Close()
		pw.Close()
		cancel()
		enc.Wait()
		return fmt.Errorf("start yt-dlp: %w", err)
	}
	// the children hold their own ends now
	pr.Close()
	pw.Close()

	dlWaitErr := dl.Wait()
	encWaitErr := enc.Wait()

	if dlWaitErr != nil {
		return fmt.Errorf("yt-dlp: %s: %w", lastLine(dlErr.Bytes()), dlWaitErr)
	}
	if encWaitErr != nil {
		return fmt.Errorf("ffmpeg: %s: %w", lastLine(encErr.Bytes()), encWaitErr)
	}

	info, err := os.Stat(output)
	if err != nil {
		return fmt.Errorf("stat output: %w", err)
	}
	if info.Size() == 0 {
		return errors.New("empty audio stream")
	}
	return nil
}

// lastLine keeps error messages short; yt-dlp prints the cause last.
func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
