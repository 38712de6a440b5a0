package generator

import (
	"fmt"
	"strings"

	"github.com/Lumos-Labs-HQ/flowpulse/internal/dataset"
	"github.com/Lumos-Labs-HQ/flowpulse/internal/sampler"
	"github.com/shopspring/decimal"
)

// GenerateChannels builds the campaign catalog: one row per (family,
// campaign), IDs dense from 1 in catalog order.
func GenerateChannels(s *Settings, streams sampler.Streams) *dataset.Table[dataset.Channel] {
	r := streams.Stream(dataset.TableChannels, 0)
	b := dataset.NewBuilder[dataset.Channel](dataset.ChannelSchema, s.ChannelCount())

	var id int64 = 1
	for _, family := range s.Catalog {
		for i := 1; i <= s.CampaignsPerChannel; i++ {
			cac := sampler.Normal(r, family.BaseCAC, s.CACStdDev)
			b.Append(dataset.Channel{
				ID:        id,
				Name:      family.Name,
				Campaign:  fmt.Sprintf("%s_campaign_%d", family.Name, i),
				UTMMedium: utmMedium(family.Name),
				UTMSource: utmSource(family.Name),
				CAC:       decimal.NewFromFloat(cac).Round(2),
			})
			id++
		}
	}
	return b.Build()
}

func utmMedium(family string) string {
	if strings.Contains(family, "ads") {
		return "cpc"
	}
	return "organic"
}

func utmSource(family string) string {
	source, _, _ := strings.Cut(family, "_")
	return source
}
