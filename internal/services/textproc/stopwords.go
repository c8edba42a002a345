package textproc

// latinStopwords filters high-frequency English function words before
// lexical indexing.
var latinStopwords = map[string]struct{}{}

// cjkStopwords filters high-frequency Chinese function words after
// segmentation.
var cjkStopwords = map[string]struct{}{}

func init() {
	latin := []string{
		"a", "about", "above", "after", "again", "all", "am", "an", "and",
		"any", "are", "as", "at", "be", "because", "been", "before", "being",
		"below", "between", "both", "but", "by", "can", "did", "do", "does",
		"doing", "down", "during", "each", "few", "for", "from", "further",
		"had", "has", "have", "having", "he", "her", "here", "hers", "him",
		"his", "how", "if", "in", "into", "is", "it", "its", "just", "me",
		"more", "most", "my", "no", "nor", "not", "now", "of", "off", "on",
		"once", "only", "or", "other", "our", "out", "own", "same",
		"she", "should", "so", "some", "such", "than", "that", "the", "their",
		"them", "then", "there", "these", "they", "this", "those", "through",
		"to", "too", "under", "until", "up", "very", "was", "we", "were",
		"what", "when", "where", "which", "while", "who", "whom", "why",
		"will", "with", "would", "you", "your", "yours",
	}
	for _, w := range latin {
		latinStopwords[w] = struct{}{}
	}

	cjk := []string{
		"的", "了", "和", "是", "就", "都", "而", "及", "与", "着",
		"或", "一个", "没有", "我们", "你们", "他们", "她们", "它们",
		"这个", "那个", "这些", "那些", "不", "在", "人", "我", "有",
		"他", "这", "中", "大", "来", "上", "国", "个", "到", "说",
		"们", "为", "子", "要", "于", "也", "吗", "呢", "吧", "啊",
		"把", "被", "让", "向", "往", "但", "还", "又", "很", "最",
	}
	for _, w := range cjk {
		cjkStopwords[w] = struct{}{}
	}
}
