package lawsuit

import (
	"fmt"
	"math/rand"
	"time"

	"litigio/company"
)

// Generator synthesizes plausible lawsuit records when the external API
// yields nothing usable, so the caller still has content to render. Counts
// and field values derive deterministically from the tax id: repeated calls
// for the same company produce the same case numbers, courts and dates. Only
// the claim-value noise varies between runs.
type Generator struct {
	// CountMod and CountOffset bound the batch size: seed%CountMod + CountOffset.
	CountMod    int
	CountOffset int
	// ForceArea overrides the legal area of every generated record when set
	// (the labor flow forces TRABALHISTA).
	ForceArea string
	// Noise supplies the randomized fraction of the claim value; defaults to
	// math/rand when nil.
	Noise func() float64
}

var (
	divisionKinds = [...]string{"Cível", "Empresarial", "Trabalhista", "Fazenda Pública"}
	caseClasses   = [...]string{"Procedimento Comum", "Execução", "Monitória", "Cautelar"}
	caseSubjects  = [...]string{"Cobrança", "Indenização", "Rescisão Contratual", "Danos Morais"}
	casePhases    = [...]string{"Em andamento", "Suspenso", "Arquivado", "Sentenciado"}
	otherAreas    = [...]string{"CIVEL", "EMPRESARIAL", "TRIBUTARIO"}
)

// Generate produces the simulated batch for a normalized tax id.
func (g Generator) Generate(taxID string) []Normalized {
	seed := company.TaxIDDigitSum(taxID)
	count := seed%g.CountMod + g.CountOffset

	noise := g.Noise
	if noise == nil {
		noise = rand.Float64
	}

	records := make([]Normalized, 0, count)
	for index := 0; index < count; index++ {
		recordSeed := seed + index
		year := 2024 - index%3
		month := recordSeed%12 + 1
		day := recordSeed%28 + 1
		filed := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)

		degree := "1º Grau"
		if index%3 == 0 {
			degree = degreeSecondInstance
		}

		area := g.ForceArea
		court := "TJSP"
		division := fmt.Sprintf("%dª Vara %s", index+1, divisionKinds[index%4])
		if area == "" {
			area = otherAreas[index%3]
			if index%4 == 0 {
				area = areaLabor
			}
		} else if area == areaLabor {
			court = "TRT-2"
			division = fmt.Sprintf("%dª Vara do Trabalho", index+1)
		}

		value := float64(recordSeed)*1000 + noise()*50000

		records = append(records, Normalized{
			CaseNumber: fmt.Sprintf("%07d-%02d.%d.8.26.%04d", recordSeed, 12+index, year, 100+index),
			Court:      court,
			Division:   division,
			Class:      caseClasses[index%4],
			Subject:    caseSubjects[index%4],
			FilingDate: &filed,
			ClaimValue: &value,
			Status:     casePhases[index%4],
			Degree:     degree,
			Area:       area,
		})
	}
	return records
}

// SimulatedStatistics derives a consistent aggregate snapshot from the tax
// id: between 15 and 64 total cases with up to 35% classified as labor.
func SimulatedStatistics(taxID string) (total, labor int, percentage float64) {
	seed := company.TaxIDDigitSum(taxID)
	total = seed%50 + 15
	labor = int(float64(seed%total) * 0.35)
	return total, labor, RoundPercentage(float64(labor) / float64(total) * 100)
}
