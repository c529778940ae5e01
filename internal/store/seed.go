package store

// The app covers Juz Amma, the final section of the Quran
const (
	FirstChapter = 78
	LastChapter  = 114
	ChapterCount = LastChapter - FirstChapter + 1
)

// ChapterNumbers returns the full target chapter range in ascending order
func ChapterNumbers() []int {
	numbers := make([]int, 0, ChapterCount)
	for n := FirstChapter; n <= LastChapter; n++ {
		numbers = append(numbers, n)
	}
	return numbers
}

// seedChapters holds the bundled chapter metadata. Verse text is fetched
// from the remote API during import; this table only carries names, counts
// and revelation place.
var seedChapters = []Chapter{
	{Number: 78, NameArabic: "النبإ", NameTransliteration: "An-Naba'", NameMeaning: "The Tidings", VerseCount: 40, Revelation: "Makkah"},
	{Number: 79, NameArabic: "النازعات", NameTransliteration: "An-Nazi'at", NameMeaning: "Those Who Pull Out", VerseCount: 46, Revelation: "Makkah"},
	{Number: 80, NameArabic: "عبس", NameTransliteration: "'Abasa", NameMeaning: "He Frowned", VerseCount: 42, Revelation: "Makkah"},
	{Number: 81, NameArabic: "التكوير", NameTransliteration: "At-Takwir", NameMeaning: "The Overthrowing", VerseCount: 29, Revelation: "Makkah"},
	{Number: 82, NameArabic: "الانفطار", NameTransliteration: "Al-Infitar", NameMeaning: "The Cleaving", VerseCount: 19, Revelation: "Makkah"},
	{Number: 83, NameArabic: "المطففين", NameTransliteration: "Al-Mutaffifin", NameMeaning: "The Defrauding", VerseCount: 36, Revelation: "Makkah"},
	{Number: 84, NameArabic: "الانشقاق", NameTransliteration: "Al-Inshiqaq", NameMeaning: "The Splitting Asunder", VerseCount: 25, Revelation: "Makkah"},
	{Number: 85, NameArabic: "البروج", NameTransliteration: "Al-Buruj", NameMeaning: "The Stars", VerseCount: 22, Revelation: "Makkah"},
	{Number: 86, NameArabic: "الطارق", NameTransliteration: "At-Tariq", NameMeaning: "The Nightcomer", VerseCount: 17, Revelation: "Makkah"},
	{Number: 87, NameArabic: "الأعلى", NameTransliteration: "Al-A'la", NameMeaning: "The Most High", VerseCount: 19, Revelation: "Makkah"},
	{Number: 88, NameArabic: "الغاشية", NameTransliteration: "Al-Ghashiyah", NameMeaning: "The Overwhelming", VerseCount: 26, Revelation: "Makkah"},
	{Number: 89, NameArabic: "الفجر", NameTransliteration: "Al-Fajr", NameMeaning: "The Dawn", VerseCount: 30, Revelation: "Makkah"},
	{Number: 90, NameArabic: "البلد", NameTransliteration: "Al-Balad", NameMeaning: "The City", VerseCount: 20, Revelation: "Makkah"},
	{Number: 91, NameArabic: "الشمس", NameTransliteration: "Ash-Shams", NameMeaning: "The Sun", VerseCount: 15, Revelation: "Makkah"},
	{Number: 92, NameArabic: "الليل", NameTransliteration: "Al-Layl", NameMeaning: "The Night", VerseCount: 21, Revelation: "Makkah"},
	{Number: 93, NameArabic: "الضحى", NameTransliteration: "Ad-Duha", NameMeaning: "The Forenoon", VerseCount: 11, Revelation: "Makkah"},
	{Number: 94, NameArabic: "الشرح", NameTransliteration: "Ash-Sharh", NameMeaning: "The Opening Forth", VerseCount: 8, Revelation: "Makkah"},
	{Number: 95, NameArabic: "التين", NameTransliteration: "At-Tin", NameMeaning: "The Fig", VerseCount: 8, Revelation: "Makkah"},
	{Number: 96, NameArabic: "العلق", NameTransliteration: "Al-'Alaq", NameMeaning: "The Clot", VerseCount: 19, Revelation: "Makkah"},
	{Number: 97, NameArabic: "القدر", NameTransliteration: "Al-Qadar", NameMeaning: "The Night of Decree", VerseCount: 5, Revelation: "Makkah"},
	{Number: 98, NameArabic: "البينة", NameTransliteration: "Al-Bayyinah", NameMeaning: "The Clear Evidence", VerseCount: 8, Revelation: "Madinah"},
	{Number: 99, NameArabic: "الزلزلة", NameTransliteration: "Az-Zalzalah", NameMeaning: "The Earthquake", VerseCount: 8, Revelation: "Madinah"},
	{Number: 100, NameArabic: "العاديات", NameTransliteration: "Al-'Adiyat", NameMeaning: "The Courser", VerseCount: 11, Revelation: "Makkah"},
	{Number: 101, NameArabic: "القارعة", NameTransliteration: "Al-Qari'ah", NameMeaning: "The Striking Hour", VerseCount: 11, Revelation: "Makkah"},
	{Number: 102, NameArabic: "التكاثر", NameTransliteration: "At-Takathur", NameMeaning: "The Rivalry", VerseCount: 8, Revelation: "Makkah"},
	{Number: 103, NameArabic: "العصر", NameTransliteration: "Al-'Asr", NameMeaning: "The Time", VerseCount: 3, Revelation: "Makkah"},
	{Number: 104, NameArabic: "الهمزة", NameTransliteration: "Al-Humazah", NameMeaning: "The Slanderer", VerseCount: 9, Revelation: "Makkah"},
	{Number: 105, NameArabic: "الفيل", NameTransliteration: "Al-Fil", NameMeaning: "The Elephant", VerseCount: 5, Revelation: "Makkah"},
	{Number: 106, NameArabic: "قريش", NameTransliteration: "Quraysh", NameMeaning: "Quraysh", VerseCount: 4, Revelation: "Makkah"},
	{Number: 107, NameArabic: "الماعون", NameTransliteration: "Al-Ma'un", NameMeaning: "The Small Kindnesses", VerseCount: 7, Revelation: "Makkah"},
	{Number: 108, NameArabic: "الكوثر", NameTransliteration: "Al-Kawthar", NameMeaning: "The Abundance", VerseCount: 3, Revelation: "Makkah"},
	{Number: 109, NameArabic: "الكافرون", NameTransliteration: "Al-Kafirun", NameMeaning: "The Disbelievers", VerseCount: 6, Revelation: "Makkah"},
	{Number: 110, NameArabic: "النصر", NameTransliteration: "An-Nasr", NameMeaning: "The Help", VerseCount: 3, Revelation: "Madinah"},
	{Number: 111, NameArabic: "المسد", NameTransliteration: "Al-Masad", NameMeaning: "The Palm Fiber", VerseCount: 5, Revelation: "Makkah"},
	{Number: 112, NameArabic: "الإخلاص", NameTransliteration: "Al-Ikhlas", NameMeaning: "The Sincerity", VerseCount: 4, Revelation: "Makkah"},
	{Number: 113, NameArabic: "الفلق", NameTransliteration: "Al-Falaq", NameMeaning: "The Daybreak", VerseCount: 5, Revelation: "Makkah"},
	{Number: 114, NameArabic: "الناس", NameTransliteration: "An-Nas", NameMeaning: "Mankind", VerseCount: 6, Revelation: "Makkah"},
}

// SeedChapters upserts the bundled chapter metadata. Existing user flags
// are preserved, so re-running an import is safe.
func (s *Store) SeedChapters() error {
	for i := range seedChapters {
		c := seedChapters[i]
		if err := s.UpsertChapter(&c); err != nil {
			return err
		}
	}
	return nil
}
