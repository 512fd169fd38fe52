package lang

import (
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"

	"spktag/pkg/contract"
)

// 屈折词尾剥离表（名词变格）。按长度降序尝试，剥掉首个命中。
// 这是吸收 "Олени/Олену/Оленою" 类屈折形的有限表，不是变格器。
var caseSuffixes = []string{
	"ові", "еві", "єві", "ою", "ею", "єю", "ом", "ем", "ам", "ям", "ах", "ях",
	"ин", "ів", "ій", "і", "и", "у", "ю", "е", "є", "о", "а", "я",
}

// stem 剥掉一个屈折词尾；词干过短则原样返回。
func stem(folded string) string {
	for _, suf := range caseSuffixes {
		if cut, ok := strings.CutSuffix(folded, FoldKey(suf)); ok {
			if len([]rune(cut)) >= 3 {
				return cut
			}
		}
	}
	return folded
}

// FuzzyEqual: 人名模糊等价——折叠后相等，或编辑距离 ≤1，
// 或双方剥一个屈折词尾后词干相等（长词干另容 1 距离）。
// 短词干只认相等：олен/олег 距离 1 却是两个人。
func FuzzyEqual(a, b string) bool {
	fa, fb := FoldKey(a), FoldKey(b)
	if fa == "" || fb == "" {
		return false
	}
	if fa == fb || levenshtein.ComputeDistance(fa, fb) <= 1 {
		return true
	}
	sa, sb := stem(fa), stem(fb)
	if sa == sb {
		return true
	}
	if len([]rune(sa)) >= 5 && len([]rune(sb)) >= 5 {
		return levenshtein.ComputeDistance(sa, sb) <= 1
	}
	return false
}

// "голос N" / "N's voice" / "voice of N" 的提取文法。
var (
	voiceOfRe   = regexp.MustCompile(`(?i)\bvoice of ([\p{L}'’-]+)`)
	possVoiceRe = regexp.MustCompile(`(?i)\b([\p{L}'’-]+)['’]s voice\b`)
	golosRe     = regexp.MustCompile(`(?i)голос[ауіом]{0,2}\s+([\p{L}'’-]+)`)
	preGolosRe  = regexp.MustCompile(`(?i)\b([\p{L}'’-]{3,})\s+голос`)
)

// VoiceOwner 从旁白提取"某人的声音"里的人名候选（原形，调用方模糊解析）。
func VoiceOwner(body string) (string, bool) {
	if m := voiceOfRe.FindStringSubmatch(body); m != nil {
		return m[1], true
	}
	if m := possVoiceRe.FindStringSubmatch(body); m != nil {
		return m[1], true
	}
	if m := golosRe.FindStringSubmatch(body); m != nil {
		return m[1], true
	}
	if m := preGolosRe.FindStringSubmatch(body); m != nil {
		// "Оленин голос" 形：属词是屈折形，交由 FuzzyEqual 吸收。
		// 形容词（чоловічий/жіночий/чийсь）不是人名候选。
		bad := false
		for _, w := range []string{"чоловічий", "жіночий", "чийсь", "чужий", "знайомий"} {
			if FoldKey(m[1]) == FoldKey(w) {
				bad = true
				break
			}
		}
		if !bad {
			return m[1], true
		}
	}
	return "", false
}

// VoiceGender 识别 "чоловічий/жіночий голос"（male/female voice）的性别提示。
func VoiceGender(body string) (contract.Gender, bool) {
	f := FoldKey(body)
	for _, c := range []string{"чоловічий голос", "male voice", "man's voice"} {
		if strings.Contains(f, FoldKey(c)) {
			return contract.GenderMale, true
		}
	}
	for _, c := range []string{"жіночий голос", "female voice", "woman's voice"} {
		if strings.Contains(f, FoldKey(c)) {
			return contract.GenderFemale, true
		}
	}
	return contract.GenderUnknown, false
}
