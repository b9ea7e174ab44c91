package chat

import (
	"fmt"
	"strings"
)

// SystemPrompt frames every completion as Slovenian legal guidance.
const SystemPrompt = `Si PravnaAI, strokovni pravni svetovalec za slovensko pravo. Tvoja naloga je pomagati uporabnikom razumeti njihove pravice in možnosti glede na slovensko zakonodajo.

NAVODILA:
1. Vedno odgovarjaj v slovenščini
2. Citiraj relevantne člene zakonov (npr. Stanovanjski zakon, Obligacijski zakonik, Zakon o delovnih razmerjih)
3. Bodi jedrnat in praktičen - uporabniku daj konkretne nasvete
4. Opozori na pomembne roke (zastaralni roki, roki za pritožbe itd.)
5. Ko je primerno, priporoči naslednje korake
6. Jasno poudari, da tvoj nasvet NE nadomešča posveta z odvetnikom

OMEJITVE:
- Ne svetuj v zadevah, ki bi zahtevale zastopanje pred sodiščem
- Ne ustvarjaj lažnih pravnih dokumentov
- Vedno omeni možnost posvetovanja z odvetnikom za kompleksnejše primere

FORMAT ODGOVORA:
- Uporabi kratke odstavke
- Uporabi alineje za sezname
- Izpostavi ključne zakonske člene
- Dodaj opozorila za pomembne roke`

var categoryContexts = map[string]string{
	"stanovanje": `Uporabnik ima vprašanje s področja stanovanjskega prava. Relevantna zakonodaja vključuje:
- Stanovanjski zakon (SZ-1)
- Obligacijski zakonik (OZ) - poglavje o najemnih pogodbah
- Zakon o izvršbi in zavarovanju (ZIZ)`,

	"delo": `Uporabnik ima vprašanje s področja delovnega prava. Relevantna zakonodaja vključuje:
- Zakon o delovnih razmerjih (ZDR-1)
- Zakon o varnosti in zdravju pri delu (ZVZD-1)
- Zakon o inšpekciji dela (ZID-1)`,

	"druzina": `Uporabnik ima vprašanje s področja družinskega prava. Relevantna zakonodaja vključuje:
- Družinski zakonik (DZ)
- Zakon o zakonski zvezi in družinskih razmerjih (ZZZDR)
- Zakon o izvršbi in zavarovanju (ZIZ)`,

	"promet": `Uporabnik ima vprašanje s področja prometnega prava. Relevantna zakonodaja vključuje:
- Zakon o pravilih cestnega prometa (ZPrCP)
- Obligacijski zakonik (OZ) - odškodninska odgovornost
- Zakon o obveznih zavarovanjih v prometu (ZOZP)`,

	"dolgovi": `Uporabnik ima vprašanje s področja dolgov in izvršb. Relevantna zakonodaja vključuje:
- Zakon o izvršbi in zavarovanju (ZIZ)
- Zakon o finančnem poslovanju, postopkih zaradi insolventnosti in prisilnem prenehanju (ZFPPIPP)
- Obligacijski zakonik (OZ)`,

	"podjetnistvo": `Uporabnik ima vprašanje s področja gospodarskega prava. Relevantna zakonodaja vključuje:
- Zakon o gospodarskih družbah (ZGD-1)
- Obligacijski zakonik (OZ)
- Zakon o davku od dohodkov pravnih oseb (ZDDPO-2)`,

	"dedovanje": `Uporabnik ima vprašanje s področja dednega prava. Relevantna zakonodaja vključuje:
- Zakon o dedovanju (ZD)
- Zakon o notariatu (ZN)
- Zakon o davku na dediščine in darila (ZDDD)`,

	"potrosniki": `Uporabnik ima vprašanje s področja varstva potrošnikov. Relevantna zakonodaja vključuje:
- Zakon o varstvu potrošnikov (ZVPot-1)
- Obligacijski zakonik (OZ)
- Zakon o izvensodnem reševanju potrošniških sporov (ZIsRPS)`,
}

// CaseDetails carries the intake form for an initial analysis.
type CaseDetails struct {
	Category string
	Role     string
	Problem  string
	Duration string
	Details  string
}

// BuildUserPrompt renders the initial analysis prompt for a case.
func BuildUserPrompt(c CaseDetails) string {
	return fmt.Sprintf(`%s

PODATKI O PRIMERU:
- Vloga uporabnika: %s
- Vrsta problema: %s
- Trajanje situacije: %s
- Opis situacije: %s

Na podlagi teh podatkov pripravi:
1. Kratek povzetek situacije
2. Relevantne zakonske podlage s konkretnimi členi
3. Ključne roke in zastaralne roke
4. Priporočene korake za rešitev
5. Opozorilo o potrebi posveta z odvetnikom za kompleksnejše vidike`,
		categoryContexts[c.Category], c.Role, c.Problem, c.Duration, c.Details)
}

// HistoryTurn is one prior exchange in a conversation.
type HistoryTurn struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

// BuildFollowUpPrompt renders a follow-up question with conversation context.
func BuildFollowUpPrompt(history []HistoryTurn, question string) string {
	lines := make([]string, 0, len(history))
	for _, turn := range history {
		speaker := "PravnaAI"
		if turn.Role == "user" {
			speaker = "Uporabnik"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", speaker, turn.Content))
	}

	return fmt.Sprintf(`DOSEDANJI POGOVOR:
%s

NOVO VPRAŠANJE UPORABNIKA:
%s

Odgovori na novo vprašanje v kontekstu dosedanjega pogovora. Če je relevantno, se sklicuj na že omenjene zakonske podlage.`,
		strings.Join(lines, "\n\n"), question)
}
