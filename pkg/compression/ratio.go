package compression

// MetricContextCompression 压缩比指标名
const MetricContextCompression = "context_compression"

// Result 压缩统计
type Result struct {
	OriginalTokens int
	RefinedTokens  int
	// Ratio 原始 Token 数 / 改写后 Token 数，改写后为 0 时取 0
	Ratio float64
}

// Ratio 统计原始与改写后上下文的 Token 总数并计算压缩比
//
// 两侧形状可以不同（合并模式下改写后的文档数可能变少）。counter 为 nil 时使用默认计数器。
func Ratio(original, refined [][]string, counter TokenCounter) Result {
	if counter == nil {
		counter = DefaultTokenCounter()
	}

	r := Result{
		OriginalTokens: countAll(original, counter),
		RefinedTokens:  countAll(refined, counter),
	}
	if r.RefinedTokens > 0 {
		r.Ratio = float64(r.OriginalTokens) / float64(r.RefinedTokens)
	}
	return r
}

// Metrics 将结果转换为指标映射
func Metrics(r Result) map[string]float64 {
	return map[string]float64{MetricContextCompression: r.Ratio}
}

func countAll(contexts [][]string, counter TokenCounter) int {
	total := 0
	for _, docs := range contexts {
		for _, doc := range docs {
			total += counter.Count(doc)
		}
	}
	return total
}
