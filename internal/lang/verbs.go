package lang

import (
	"strings"
	"unicode"

	"spktag/pkg/contract"
)

// 言说动词（阳性过去式）。阴性形由词尾 в→ла 规则派生，见 init。
var speechVerbsMasc = []string{
	"сказав", "запитав", "спитав", "відповів", "прошепотів", "шепнув",
	"крикнув", "вигукнув", "мовив", "промовив", "додав", "повторив",
	"пробурмотів", "буркнув", "зауважив", "гукнув", "перебив", "продовжив",
	"прохрипів", "засміявся", "погодився", "заперечив", "прошипів",
}

// 无语法性别的言说动词（英文等）。
var speechVerbsNeutral = []string{
	"said", "asked", "replied", "answered", "whispered", "shouted",
	"murmured", "called", "told", "cried", "snapped", "added", "repeated",
	"continued", "muttered", "exclaimed", "interrupted", "agreed", "laughed",
	"каже", "питає", "відповідає", "шепоче", "кричить", "повторює",
}

// speechVerbs: 折叠形 → 动词语法性别。
var speechVerbs = map[string]contract.Gender{}

func init() {
	for _, v := range speechVerbsMasc {
		speechVerbs[FoldKey(v)] = contract.GenderMale
		// 阴性过去式：-в → -ла / -вся → -лася。
		if f, ok := strings.CutSuffix(v, "вся"); ok {
			speechVerbs[FoldKey(f+"лася")] = contract.GenderFemale
			continue
		}
		if f, ok := strings.CutSuffix(v, "в"); ok {
			speechVerbs[FoldKey(f+"ла")] = contract.GenderFemale
		}
	}
	for _, v := range speechVerbsNeutral {
		speechVerbs[FoldKey(v)] = contract.GenderUnknown
	}
}

// SpeechVerb 判定折叠 token 是否言说动词，并给出其语法性别。
// 无性别形（英文现在/过去式）返回 GenderUnknown——一致性检查时不构成冲突。
func SpeechVerb(tok string) (contract.Gender, bool) {
	g, ok := speechVerbs[FoldKey(tok)]
	return g, ok
}

// HasSpeechVerb 检查串内是否出现任一言说动词，返回首个命中的性别。
func HasSpeechVerb(s string) (contract.Gender, bool) {
	for _, t := range Tokens(s) {
		if g, ok := SpeechVerb(t); ok {
			return g, true
		}
	}
	return contract.GenderUnknown, false
}

// 第一人称自指言说标记（行内尾部 "— повторюю я" / "I answered" 类）。
var firstPersonCues = []string{
	"повторюю", "кажу", "відповідаю", "питаю",
	"я відповів", "я відповіла", "я сказав", "я сказала",
	"я запитав", "я запитала", "я мовив", "я мовила",
	"відповів я", "відповіла я", "сказав я", "сказала я",
	"запитав я", "запитала я", "мовив я", "мовила я", "повторив я", "повторила я",
	"i repeat", "i say", "i answered", "i said", "i replied", "i asked",
	"answered i", "said i", "replied i",
}

// padWords 折叠后把非字母改写为空格并两端补空格，供整词短语查找。
func padWords(s string) string {
	f := FoldKey(s)
	var b strings.Builder
	b.WriteByte(' ')
	for _, r := range f {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	b.WriteByte(' ')
	return b.String()
}

// FirstPersonCue: s 含第一人称自指言说标记（整词匹配）。
func FirstPersonCue(s string) bool {
	f := padWords(s)
	for _, c := range firstPersonCues {
		if strings.Contains(f, " "+strings.TrimSpace(padWords(c))+" ") {
			return true
		}
	}
	return false
}

// 思考/格言提示（引文被降级为内心独白的信号）。
var thoughtCues = []string{
	"подумав", "подумала", "думка", "думки", "про себе", "промайнуло",
	"міркував", "міркувала", "спало на думку",
	"thought", "to himself", "to herself", "mused", "wondered",
}

// ThoughtCue: s 含思考提示。
func ThoughtCue(s string) bool {
	f := FoldKey(s)
	for _, c := range thoughtCues {
		if strings.Contains(f, FoldKey(c)) {
			return true
		}
	}
	return false
}

// 群体噪声引导（"усі закричали:" 类）——压制引导启发式。
var groupNoiseCues = []string{
	"усі", "всі", "хором", "в один голос", "разом закричали", "гуртом",
	"everyone", "others", "all together", "the crowd", "in unison",
}

// GroupNoiseCue: s 是群体噪声引导（整词匹配）。
func GroupNoiseCue(s string) bool {
	f := padWords(s)
	for _, c := range groupNoiseCues {
		if strings.Contains(f, " "+strings.TrimSpace(padWords(c))+" ") {
			return true
		}
	}
	return false
}
