package pipeline

import (
	"fmt"
	"strings"
	"time"
)

const intentPrompt = `Klasifikasikan niat pengguna ke dalam salah satu kategori berikut: 'tracking' atau 'general'.

'tracking': Gunakan ini HANYA jika pengguna ingin mengecek status, posisi, atau progres dari dokumen yang SUDAH diajukan. Biasanya mengandung kata kunci seperti 'cek status', 'sampai mana', 'apakah sudah jadi', 'lacak', atau menyertakan nomor registrasi.
'general': Gunakan ini untuk pertanyaan informasi umum, persyaratan, prosedur, estimasi waktu pembuatan (SLA), lokasi kantor, atau jam operasional. Contoh: 'berapa lama proses KTP?', 'apa syarat KK?', 'cara buat akta'.

Jawab HANYA dengan satu kata: 'tracking' atau 'general'.`

const contextualizePromptFormat = `Diberikan riwayat percakapan dan pertanyaan terbaru dari pengguna yang mungkin merujuk pada konteks sebelumnya.
Formulasikan ulang pertanyaan tersebut menjadi pertanyaan mandiri (standalone question) yang dapat dipahami tanpa melihat riwayat percakapan.
JANGAN menjawab pertanyaan tersebut, hanya formulasikan ulang jika perlu.
Jika pertanyaan sudah jelas dan mandiri, kembalikan apa adanya.

Contoh:
Riwayat:
User: Apa syarat buat KTP?
AI: Syaratnya adalah...
Pertanyaan Baru: Berapa lama jadinya?
Output: Berapa lama proses pembuatan KTP?

Riwayat Percakapan:
%s`

const answerPromptFormat = `Kamu adalah asisten informasi publik untuk Disdukcapil Kabupaten Kepulauan Anambas.
Gunakan konteks berikut untuk menjawab pertanyaan. Jika informasi tidak ditemukan, katakan bahwa kamu tidak tahu.
Tanggal saat ini adalah %s.

Tugas Tambahan:
Klasifikasikan pertanyaan pengguna ke dalam salah satu kategori berikut berdasarkan topik utamanya:
- KTP
- KK
- Akta Kelahiran
- Akta Kematian
- KIA
- Pindah Datang
- Umum (Hanya jika pertanyaan TIDAK berkaitan dengan dokumen di atas)

PENTING:
1. Jika pertanyaan menyebutkan jenis dokumen spesifik, gunakan kategori tersebut.
2. Jika pertanyaan adalah **tindak lanjut** (misal: "berapa lama?", "biayanya?", "syaratnya?"), LIHAT RIWAYAT PERCAKAPAN. Jika sebelumnya membahas KIA, maka pertanyaan ini juga harus masuk kategori **KIA**.

INSTRUKSI KHUSUS OUTPUT:
Kamu WAJIB memberikan output HANYA dalam format JSON valid. Jangan ada teks pembuka atau penutup.
Struktur JSON:
{
  "answer": "Jawaban kamu di sini...",
  "category": "Kategori yang dipilih"
}

Contoh:
User: "Syarat buat KTP apa?"
Output: { "answer": "Syaratnya...", "category": "KTP" }

User: "Kantor buka jam berapa?"
Output: { "answer": "Kantor buka...", "category": "Umum" }

Batasan:
- JANGAN gunakan informasi di luar konteks yang diberikan.
- Jika informasi tidak ada di konteks, KATAKAN TIDAK TAHU. Jangan mengarang atau menggunakan pengetahuan luar.
- HANYA jawab pertanyaan yang berkaitan dengan layanan Disdukcapil, Administrasi Kependudukan, dan dokumen terkait. Jika user bertanya hal lain (misal: Presiden, Politik, Resep Masakan), tolak dengan sopan.
- Gunakan format Markdown (bullet points, numbering, bold) untuk menjelaskan langkah-langkah atau persyaratan agar mudah dibaca dan rapi.
- Langsung berikan jawaban Inti!
- **PENTING**: Jika konteks mengandung referensi hukum (Undang-Undang, Perpres, Permendagri, atau Pasal), KAMU WAJIB MENYEBUTKANNYA dalam jawaban sebagai dasar hukum. Contoh: "Berdasarkan Perpres No. 96 Tahun 2018 Pasal 12..."

Riwayat Percakapan:
%s

Konteks:
%s`

const trackingPromptFormat = `Kamu adalah asisten pelacakan status dokumen.
Jika pengguna ingin mengetahui status dokumen (KTP, KK, dll), kamu harus bertanya terlebih dahulu nomor registrasi pengurusan dokumen.
Jika nomor registrasi sudah diberikan, gunakan data status dari API untuk menjawab.
Tanggal saat ini adalah %s.

Status Dokumen:
%s`

var (
	indonesianDays = [...]string{
		"Minggu", "Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu",
	}
	indonesianMonths = [...]string{
		"Januari", "Februari", "Maret", "April", "Mei", "Juni",
		"Juli", "Agustus", "September", "Oktober", "November", "Desember",
	}
)

// indonesianDate formats t the way the answers quote it, e.g.
// "Sabtu, 30 Agustus 2026 14:05:09".
func indonesianDate(t time.Time) string {
	return fmt.Sprintf("%s, %d %s %d %02d:%02d:%02d",
		indonesianDays[t.Weekday()], t.Day(), indonesianMonths[t.Month()-1], t.Year(),
		t.Hour(), t.Minute(), t.Second())
}

const historyWindow = 6

// formatHistory renders the most recent turns for a prompt, oldest first.
func formatHistory(history []Turn) string {
	if len(history) == 0 {
		return "(tidak ada riwayat)"
	}
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	var b strings.Builder
	for _, t := range history {
		role := "User"
		if t.Role == "assistant" || t.Role == "ai" {
			role = "AI"
		}
		fmt.Fprintf(&b, "%s: %s\n", role, t.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}
