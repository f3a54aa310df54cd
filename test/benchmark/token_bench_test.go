package benchmark

import (
	"fmt"
	"strings"
	"testing"

	"github.com/narongchai190/soiler/internal/retrieval/token"
)

var sampleTexts = map[string]string{
	"short": "Apply agricultural lime to correct acidic soil before planting",
	"medium": `Nitrogen deficiency in rice appears as uniform yellowing of older
        leaves and stunted tillering. Split urea applications at tillering and
        panicle initiation improve uptake efficiency and reduce losses through
        volatilization. Soil testing before each season establishes the baseline
        so that fertilizer rates match the actual nutrient gap rather than a
        blanket recommendation.`,
	"long": strings.Repeat(`Soil pH governs nutrient availability: below 5.5
        phosphorus binds to iron and aluminium oxides, while above 7.5 zinc and
        manganese become unavailable. Agricultural lime raises pH gradually over
        one or two seasons, with application rates scaled by soil texture since
        clay soils buffer harder than sands. Potassium leaches quickly in coarse
        textured paddies, so split applications retain more of the nutrient in
        the root zone. `, 20),
}

func BenchmarkNormalize(b *testing.B) {
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				terms := token.Normalize(text)
				_ = terms
			}
		})
	}
}

func BenchmarkNormalizeParallel(b *testing.B) {
	text := sampleTexts["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			terms := token.Normalize(text)
			_ = terms
		}
	})
}

func BenchmarkNormalizeVaryingSize(b *testing.B) {
	sizes := []int{10, 100, 500, 1000, 5000}
	baseWord := "soil fertility nitrogen phosphorus potassium lime "
	for _, size := range sizes {
		text := strings.Repeat(baseWord, size/len(baseWord)+1)[:size]
		b.Run(fmt.Sprintf("bytes_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				terms := token.Normalize(text)
				_ = terms
			}
		})
	}
}
