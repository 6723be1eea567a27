package quran

import "fmt"

const (
	SurahCount = 114
	AyahCount  = 6236
)

type surahInfo struct {
	name   string
	verses int
	meccan bool
}

// Static lookup used when the upstream APIs are unavailable.
var surahTable = [SurahCount]surahInfo{
	{"Al-Fatihah", 7, true}, {"Al-Baqarah", 286, false}, {"Ali 'Imran", 200, false},
	{"An-Nisa", 176, false}, {"Al-Ma'idah", 120, false}, {"Al-An'am", 165, true},
	{"Al-A'raf", 206, true}, {"Al-Anfal", 75, false}, {"At-Tawbah", 129, false},
	{"Yunus", 109, true}, {"Hud", 123, true}, {"Yusuf", 111, true},
	{"Ar-Ra'd", 43, false}, {"Ibrahim", 52, true}, {"Al-Hijr", 99, true},
	{"An-Nahl", 128, true}, {"Al-Isra", 111, true}, {"Al-Kahf", 110, true},
	{"Maryam", 98, true}, {"Taha", 135, true}, {"Al-Anbya", 112, true},
	{"Al-Hajj", 78, false}, {"Al-Mu'minun", 118, true}, {"An-Nur", 64, false},
	{"Al-Furqan", 77, true}, {"Ash-Shu'ara", 227, true}, {"An-Naml", 93, true},
	{"Al-Qasas", 88, true}, {"Al-'Ankabut", 69, true}, {"Ar-Rum", 60, true},
	{"Luqman", 34, true}, {"As-Sajdah", 30, true}, {"Al-Ahzab", 73, false},
	{"Saba", 54, true}, {"Fatir", 45, true}, {"Ya-Sin", 83, true},
	{"As-Saffat", 182, true}, {"Sad", 88, true}, {"Az-Zumar", 75, true},
	{"Ghafir", 85, true}, {"Fussilat", 54, true}, {"Ash-Shuraa", 53, true},
	{"Az-Zukhruf", 89, true}, {"Ad-Dukhan", 59, true}, {"Al-Jathiyah", 37, true},
	{"Al-Ahqaf", 35, true}, {"Muhammad", 38, false}, {"Al-Fath", 29, false},
	{"Al-Hujurat", 18, false}, {"Qaf", 45, true}, {"Adh-Dhariyat", 60, true},
	{"At-Tur", 49, true}, {"An-Najm", 62, true}, {"Al-Qamar", 55, true},
	{"Ar-Rahman", 78, false}, {"Al-Waqi'ah", 96, true}, {"Al-Hadid", 29, false},
	{"Al-Mujadila", 22, false}, {"Al-Hashr", 24, false}, {"Al-Mumtahanah", 13, false},
	{"As-Saf", 14, false}, {"Al-Jumu'ah", 11, false}, {"Al-Munafiqun", 11, false},
	{"At-Taghabun", 18, false}, {"At-Talaq", 12, false}, {"At-Tahrim", 12, false},
	{"Al-Mulk", 30, true}, {"Al-Qalam", 52, true}, {"Al-Haqqah", 52, true},
	{"Al-Ma'arij", 44, true}, {"Nuh", 28, true}, {"Al-Jinn", 28, true},
	{"Al-Muzzammil", 20, true}, {"Al-Muddaththir", 56, true}, {"Al-Qiyamah", 40, true},
	{"Al-Insan", 31, false}, {"Al-Mursalat", 50, true}, {"An-Naba", 40, true},
	{"An-Nazi'at", 46, true}, {"'Abasa", 42, true}, {"At-Takwir", 29, true},
	{"Al-Infitar", 19, true}, {"Al-Mutaffifin", 36, true}, {"Al-Inshiqaq", 25, true},
	{"Al-Buruj", 22, true}, {"At-Tariq", 17, true}, {"Al-A'la", 19, true},
	{"Al-Ghashiyah", 26, true}, {"Al-Fajr", 30, true}, {"Al-Balad", 20, true},
	{"Ash-Shams", 15, true}, {"Al-Layl", 21, true}, {"Ad-Duhaa", 11, true},
	{"Ash-Sharh", 8, true}, {"At-Tin", 8, true}, {"Al-'Alaq", 19, true},
	{"Al-Qadr", 5, true}, {"Al-Bayyinah", 8, false}, {"Az-Zalzalah", 8, false},
	{"Al-'Adiyat", 11, true}, {"Al-Qari'ah", 11, true}, {"At-Takathur", 8, true},
	{"Al-'Asr", 3, true}, {"Al-Humazah", 9, true}, {"Al-Fil", 5, true},
	{"Quraysh", 4, true}, {"Al-Ma'un", 7, true}, {"Al-Kawthar", 3, true},
	{"Al-Kafirun", 6, true}, {"An-Nasr", 3, false}, {"Al-Masad", 5, true},
	{"Al-Ikhlas", 4, true}, {"Al-Falaq", 5, true}, {"An-Nas", 6, true},
}

// offsets[i] is the absolute number of the ayah preceding surah i+1.
var offsets = func() [SurahCount + 1]int {
	var o [SurahCount + 1]int
	for i, s := range surahTable {
		o[i+1] = o[i] + s.verses
	}
	return o
}()

// ValidSurah reports whether n is a surah number.
func ValidSurah(n int) bool {
	return n >= 1 && n <= SurahCount
}

// SurahName returns the transliterated name of a surah, or "Surah n" if unknown.
func SurahName(n int) string {
	if !ValidSurah(n) {
		return fmt.Sprintf("Surah %d", n)
	}
	return surahTable[n-1].name
}

// VerseCount returns the number of ayahs in a surah, 0 if unknown.
func VerseCount(n int) int {
	if !ValidSurah(n) {
		return 0
	}
	return surahTable[n-1].verses
}

// RevelationType returns "Meccan" or "Medinan".
func RevelationType(n int) string {
	if !ValidSurah(n) {
		return ""
	}
	if surahTable[n-1].meccan {
		return "Meccan"
	}
	return "Medinan"
}

// AbsoluteNumber converts a surah:ayah pair into the absolute ayah number.
func AbsoluteNumber(surah, ayah int) (int, bool) {
	if !ValidSurah(surah) || ayah < 1 || ayah > surahTable[surah-1].verses {
		return 0, false
	}
	return offsets[surah-1] + ayah, true
}

// SplitAbsolute converts an absolute ayah number into its surah:ayah pair.
func SplitAbsolute(number int) (surah, ayah int, ok bool) {
	if number < 1 || number > AyahCount {
		return 0, 0, false
	}
	lo, hi := 1, SurahCount
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if offsets[mid-1] < number {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo, number - offsets[lo-1], true
}
