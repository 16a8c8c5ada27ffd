package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

var scheduleParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(sf reflect.StructField) string {
			name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		validate.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
			s := strings.TrimSpace(fl.Field().String())
			if s == "0" {
				return true
			}
			d, err := time.ParseDuration(s)
			return err == nil && d >= 0
		})
		validate.RegisterValidation("cron", func(fl validator.FieldLevel) bool {
			_, err := scheduleParser.Parse(fl.Field().String())
			return err == nil
		})
	})
	return validate
}

// Validate checks every field of cfg against its validate tag. The error
// names the offending keys in dotted form.
func Validate(cfg *Config) error {
	err := validatorInstance().Struct(cfg)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		key := strings.TrimPrefix(fe.Namespace(), "Config.")
		msgs = append(msgs, describe(key, fe))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func validateValue(f field, v any) error {
	if f.Validate == "" {
		return nil
	}
	err := validatorInstance().Var(v, f.Validate)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return errors.New(describe(f.Key, verrs[0]))
	}
	return err
}

func describe(key string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "duration":
		return fmt.Sprintf("%s: %q is not a duration like 30m or 24h", key, fe.Value())
	case "cron":
		return fmt.Sprintf("%s: %q is not a cron schedule", key, fe.Value())
	case "url":
		return fmt.Sprintf("%s: %q is not a URL", key, fe.Value())
	case "hostname_port":
		return fmt.Sprintf("%s: %q is not host:port", key, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s: %v is not one of [%s]", key, fe.Value(), fe.Param())
	case "gte", "lte":
		return fmt.Sprintf("%s: %v fails %s=%s", key, fe.Value(), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s: %v fails %s", key, fe.Value(), fe.Tag())
}
