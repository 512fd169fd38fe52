package lang

import (
	"strings"
	"unicode"

	"spktag/pkg/contract"
)

// 显式性别标记（角色表属性 token）。
var genderMarkers = map[string]contract.Gender{
	"ч": contract.GenderMale, "чол": contract.GenderMale, "чоловік": contract.GenderMale,
	"м": contract.GenderMale, "m": contract.GenderMale, "male": contract.GenderMale,
	"ж": contract.GenderFemale, "жін": contract.GenderFemale, "жінка": contract.GenderFemale,
	"f": contract.GenderFemale, "female": contract.GenderFemale,
}

// GenderMarker 判定属性 token 是否显式性别标记。
func GenderMarker(attr string) (contract.Gender, bool) {
	g, ok := genderMarkers[FoldKey(attr)]
	return g, ok
}

// 称谓词干表。阴性在先、且含更长词干（онучк 先于 онук），按序首个前缀命中生效。
var feminineStems = []string{
	"жінк", "жінц", "дівчин", "дівч", "мам", "матір", "мати", "бабус", "бабц", "баб",
	"доньк", "дон", "дочк", "сестр", "тітк", "правнучк", "онучк", "княгин", "пані",
	"woman", "girl", "mother", "mom", "grandmother", "granddaughter",
	"great-granddaughter", "daughter", "sister", "aunt", "lady", "queen", "princess",
}

var masculineStems = []string{
	"чоловік", "хлопц", "хлопч", "хлоп", "дідус", "дід", "батьк", "тат",
	"син", "брат", "дядьк", "старост", "ватажк", "ватаж", "вожд", "отаман",
	"правнук", "онук", "княз", "пан",
	"man", "boy", "father", "dad", "grandfather", "grandson", "great-grandson",
	"son", "brother", "uncle", "elder", "leader", "chief", "lord", "king", "prince",
}

// StemGender 按称谓词干推断词的语法性别（先阴性后阳性，前缀匹配）。
func StemGender(word string) contract.Gender {
	f := FoldKey(word)
	for _, s := range feminineStems {
		if strings.HasPrefix(f, FoldKey(s)) {
			return contract.GenderFemale
		}
	}
	for _, s := range masculineStems {
		if strings.HasPrefix(f, FoldKey(s)) {
			return contract.GenderMale
		}
	}
	return contract.GenderUnknown
}

// GuessNameGender: 角色表无显式性别时的简易词尾猜测。
// 西里尔词尾 а/я → 阴性，辅音结尾 → 阳性；拉丁名不猜。
func GuessNameGender(name string) contract.Gender {
	rs := []rune(strings.TrimSpace(name))
	if len(rs) == 0 {
		return contract.GenderUnknown
	}
	last := rs[len(rs)-1]
	if !unicode.Is(unicode.Cyrillic, last) {
		return contract.GenderUnknown
	}
	switch last {
	case 'а', 'я':
		return contract.GenderFemale
	case 'о', 'е', 'і', 'и', 'у', 'ю', 'ь':
		return contract.GenderUnknown
	default:
		return contract.GenderMale
	}
}

// 第三人称代词 → 性别。
var pronounGenders = map[string]contract.Gender{
	"він": contract.GenderMale, "його": contract.GenderMale, "йому": contract.GenderMale,
	"he": contract.GenderMale, "him": contract.GenderMale, "his": contract.GenderMale,
	"вона": contract.GenderFemale, "її": contract.GenderFemale, "їй": contract.GenderFemale,
	"she": contract.GenderFemale, "her": contract.GenderFemale, "hers": contract.GenderFemale,
}

// PronounGender 判定折叠 token 是否带性别的第三人称代词。
func PronounGender(tok string) (contract.Gender, bool) {
	g, ok := pronounGenders[FoldKey(tok)]
	return g, ok
}

var secondPerson = map[string]struct{}{
	"ти": {}, "тебе": {}, "тобі": {}, "ви": {}, "вас": {}, "вам": {},
	"you": {}, "your": {},
}

// SecondPersonCue: s 含第二人称代词。
func SecondPersonCue(s string) bool {
	for _, t := range Tokens(s) {
		if _, ok := secondPerson[FoldKey(t)]; ok {
			return true
		}
	}
	return false
}

// 亲属称呼派生：基础形折叠键 → 附加称呼形（呼格等）。有限显式表。
var kinshipVocatives = map[string][]string{
	"дід":    {"діду", "дідусю"},
	"дідусь": {"дідусю", "діду"},
	"баба":   {"бабо"},
	"бабуся": {"бабусю", "бабо"},
	"мама":   {"мамо", "мамочко"},
	"мати":   {"мамо"},
	"тато":   {"тату", "татку"},
	"батько": {"тату"},
	"син":    {"сину", "синку"},
	"донька": {"доню", "донечко"},
	"дочка":  {"доню"},
	"grandfather": {"grandpa"},
	"grandmother": {"grandma"},
	"mother":      {"mom", "mama"},
	"father":      {"dad", "papa"},
}

// KinshipVocatives 返回名字的附加称呼形；无则 nil。
func KinshipVocatives(name string) []string {
	return kinshipVocatives[FoldKey(name)]
}

// 主角/孩子/内心独白角色描述判定。
var protagonistCues = []string{"протагоніст", "головний герой", "оповідач", "protagonist", "main character"}
var childCues = []string{"хлопчик", "дівчинка", "дитина", "школяр", "підліток", "boy", "girl", "child", "kid", "teenager"}
var innerVoiceCues = []string{"внутрішній голос", "думки", "inner voice", "thoughts", "inner thoughts"}

func containsAny(role string, cues []string) bool {
	f := FoldKey(role)
	for _, c := range cues {
		if strings.Contains(f, FoldKey(c)) {
			return true
		}
	}
	return false
}

// IsProtagonistRole: 角色描述带主角标记。
func IsProtagonistRole(role string) bool { return containsAny(role, protagonistCues) }

// IsChildRole: 角色描述是孩子类称谓。
func IsChildRole(role string) bool { return containsAny(role, childCues) }

// IsInnerVoiceRole: 角色描述是内心独白专用角色。
func IsInnerVoiceRole(role string) bool { return containsAny(role, innerVoiceCues) }

// 亲属关系词（父母侧），用于 "мати Олега" / "mother of Oleh" 类角色描述。
var parentCues = []string{
	"мати", "мама", "батько", "тато", "бабуся", "дід", "дідусь",
	"mother", "father", "grandmother", "grandfather", "parent",
}

// ParentRelation 从角色描述提取 parent→child 关系的 child 名（原形，未折叠）。
// 乌文为属格屈折形（Олега），由调用方模糊解析。未命中返回 ("", false)。
func ParentRelation(role string) (string, bool) {
	toks := Tokens(role)
	for i, t := range toks {
		if !containsAny(t, parentCues) {
			continue
		}
		// "mother of Oleh": 跳过 of；"мати Олега": 直接取下一词。
		j := i + 1
		if j < len(toks) && FoldKey(toks[j]) == "of" {
			j++
		}
		if j < len(toks) {
			return toks[j], true
		}
	}
	return "", false
}
