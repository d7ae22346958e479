package transcribe

import (
	"context"
	"fmt"

	"github.com/linkpi14/transcript-v11/internal/job"
)

// Simulated produces deterministic placeholder text so the service can be
// demonstrated without a provider credential. The text depends only on the
// source kind and the request's reference.
type Simulated struct{}

func NewSimulated() *Simulated {
	return &Simulated{}
}

func (s *Simulated) Name() string {
	return "simulated"
}

func (s *Simulated) Transcribe(_ context.Context, req *job.Request, _ *job.Artifact) (*job.Result, error) {
	return &job.Result{Text: SimulatedText(req), Source: job.SourceSimulated}, nil
}

func SimulatedText(req *job.Request) string {
	switch req.Kind {
	case job.KindYouTube:
		return youtubeText(req.URL)
	case job.KindInstagram:
		return instagramText(req.URL)
	case job.KindUpload:
		if req.Upload == nil {
			return uploadText("", 0, "")
		}
		return uploadText(req.Upload.Name, req.Upload.Size, req.Upload.MIME)
	default:
		return fmt.Sprintf("Transcrição simulada: %s", req.Reference())
	}
}

func youtubeText(url string) string {
	return "Transcrição simulada do vídeo YouTube: " + url + "\n      \n" +
		"Esta é uma demonstração. Para funcionar de verdade, você precisa:\n" +
		"1. Configurar sua chave da OpenAI\n" +
		"2. Adicionar OPENAI_API_KEY nas variáveis de ambiente\n\n" +
		"O vídeo foi processado com sucesso e esta seria a transcrição real do áudio."
}

func instagramText(url string) string {
	return "Transcrição simulada do Instagram: " + url + "\n    \n" +
		"Esta é uma demonstração. Para Instagram funcionar de verdade, você precisa:\n" +
		"1. Implementar downloader do Instagram (instaloader, etc.)\n" +
		"2. Configurar autenticação se necessário\n" +
		"3. Processar diferentes tipos de mídia (Reels, IGTV, Posts)\n\n" +
		"O conteúdo seria baixado e transcrito automaticamente."
}

func uploadText(name string, size int64, mime string) string {
	return "Transcrição simulada do arquivo: " + name + "\n      \n" +
		"Esta é uma demonstração. O arquivo foi recebido com sucesso:\n" +
		"- Nome: " + name + "\n" +
		"- Tamanho: " + FormatMB(size) + "MB\n" +
		"- Tipo: " + mime + "\n\n" +
		"Para funcionar de verdade, configure sua chave da OpenAI."
}

// FormatMB renders a byte count in MiB with two decimals.
func FormatMB(size int64) string {
	return fmt.Sprintf("%.2f", float64(size)/1024/1024)
}
