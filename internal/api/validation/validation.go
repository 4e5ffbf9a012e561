// Package validation 注册业务自定义校验规则，并把校验错误翻译为中文提示
package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"

	"pfe-hub/backend/internal/model"
)

// 自定义校验标签
const (
	preferenceRankTag = "preference_rank"
	gradeTag          = "grade"
	subjectStatusTag  = "subject_status"
)

const (
	minPreferenceRank = 1
	maxPreferenceRank = 5
	minGrade          = 0.0
	maxGrade          = 20.0
)

var (
	once       sync.Once
	translator ut.Translator
	initErr    error
)

// Register 在 gin 默认校验器上注册自定义规则与中文翻译，可重复调用
func Register() error {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			initErr = errors.New("gin 校验引擎不是 validator/v10")
			return
		}
		initErr = setup(v)
	})
	return initErr
}

func setup(v *validator.Validate) error {
	locale := zh.New()
	translator, _ = ut.New(locale, locale).GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(v, translator); err != nil {
		return err
	}

	// 错误信息使用 json / form 字段名
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, key := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	rules := []struct {
		tag  string
		fn   validator.Func
		text string
	}{
		{preferenceRankTag, validatePreferenceRank, "{0}必须在 1 到 5 之间"},
		{gradeTag, validateGrade, "{0}必须在 0 到 20 之间"},
		{subjectStatusTag, validateSubjectStatus, "{0}必须是 pending、approved 或 rejected"},
	}
	for _, r := range rules {
		if err := v.RegisterValidation(r.tag, r.fn); err != nil {
			return err
		}
		text := r.text
		tag := r.tag
		err := v.RegisterTranslation(tag, translator,
			func(t ut.Translator) error { return t.Add(tag, text, true) },
			func(t ut.Translator, fe validator.FieldError) string {
				s, _ := t.T(tag, fe.Field())
				return s
			},
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// Translate 把绑定错误转换为可读提示；非校验错误（如 JSON 语法错误）返回空串
func Translate(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || translator == nil {
		return ""
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Translate(translator))
	}
	return strings.Join(msgs, "; ")
}

func validatePreferenceRank(fl validator.FieldLevel) bool {
	rank := fl.Field().Int()
	return rank >= minPreferenceRank && rank <= maxPreferenceRank
}

func validateGrade(fl validator.FieldLevel) bool {
	f := fl.Field()
	if f.Kind() != reflect.Float32 && f.Kind() != reflect.Float64 {
		return false
	}
	g := f.Float()
	return g >= minGrade && g <= maxGrade
}

func validateSubjectStatus(fl validator.FieldLevel) bool {
	return model.SubjectStatus(fl.Field().String()).Valid()
}
