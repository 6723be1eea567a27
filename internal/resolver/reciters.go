package resolver

import "sort"

// Reciter maps an alquran.cloud edition to the folder names the
// surah/verse-keyed mirrors use for the same recitation.
type Reciter struct {
	Edition   string
	Name      string
	EveryAyah string // folder prefix, bitrate suffix appended
	QuranCDN  string // path under verses.quran.com
}

var reciters = map[string]Reciter{
	"ar.alafasy":            {"ar.alafasy", "Mishary Rashid Alafasy", "Alafasy", "Alafasy/mp3"},
	"ar.husary":             {"ar.husary", "Mahmoud Khalil Al-Husary", "Husary", "Husary/mp3"},
	"ar.abdulbasitmurattal": {"ar.abdulbasitmurattal", "Abdul Basit (Murattal)", "Abdul_Basit_Murattal", "AbdulBaset/Murattal/mp3"},
	"ar.minshawi":           {"ar.minshawi", "Mohamed Siddiq al-Minshawi", "Minshawy_Murattal", "Minshawi/Murattal/mp3"},
	"ar.abdurrahmaansudais": {"ar.abdurrahmaansudais", "Abdurrahmaan As-Sudais", "Abdurrahmaan_As-Sudais", "Sudais/mp3"},
	"ar.shaatree":           {"ar.shaatree", "Abu Bakr Ash-Shaatree", "Abu_Bakr_Ash-Shaatree", "Shatri/mp3"},
}

// LookupReciter returns the mirror folders of an edition.
func LookupReciter(edition string) (Reciter, bool) {
	r, ok := reciters[edition]
	return r, ok
}

// Reciters returns every known edition sorted by edition ID.
func Reciters() []Reciter {
	out := make([]Reciter, 0, len(reciters))
	for _, r := range reciters {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Edition < out[j].Edition })
	return out
}
