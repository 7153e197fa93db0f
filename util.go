package dbobj

import (
	"strings"
)

type dbTag struct {
	Name   string
	Format Format
	IsAuto bool
	IsKey  bool
	Skip   bool
}

// parseDBTag reads tags in the form `db:"name,key auto format=d"`.
func parseDBTag(value string) (tag dbTag, err error) {
	tagArr := strings.SplitN(value, ",", 2)

	tag.Name = strings.TrimSpace(tagArr[0])
	if tag.Name == "-" {
		tag.Skip = true
		return
	}

	if len(tagArr) < 2 {
		return
	}

	checkBool := func(key string, tagarr []string) bool {
		bval := false
		if strings.EqualFold(strings.TrimSpace(tagarr[0]), key) {
			bval = true
		}

		if bval && len(tagarr) > 1 {
			sval := strings.TrimSpace(tagarr[1])
			if strings.EqualFold(sval, "false") {
				bval = false
			}
		}

		return bval
	}

	for _, v := range strings.Fields(strings.ReplaceAll(tagArr[1], ",", " ")) {
		varr := strings.SplitN(v, "=", 2)
		key := strings.TrimSpace(varr[0])

		if checkBool("auto", varr) {
			tag.IsAuto = true
			continue
		}

		if checkBool("key", varr) {
			tag.IsKey = true
			continue
		}

		if len(varr) > 1 && strings.EqualFold(key, "format") {
			if tag.Format, err = ParseFormat(varr[1]); err != nil {
				return
			}
		}
	}

	return
}

func sliceMap[In any, Out any](list []In, mapFn func(val In) Out) []Out {
	var newSlice = make([]Out, len(list))
	for i, val := range list {
		newSlice[i] = mapFn(val)
	}

	return newSlice
}

func sliceContains[T comparable](list []T, val T) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}

	return false
}
