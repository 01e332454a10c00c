package sqlite

import (
	"database/sql"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	uuidType = reflect.TypeOf(uuid.UUID{})
	timeType = reflect.TypeOf(time.Time{})
)

// Scanner maps result columns onto struct fields through their db tags.
// Columns without a matching field are skipped.
type Scanner struct {
	fields sync.Map // reflect.Type -> map[string][]int
}

func NewScanner() *Scanner {
	return &Scanner{}
}

// ScanRowToStruct advances rows once and scans the row into dest.
func (s *Scanner) ScanRowToStruct(rows *sql.Rows, dest interface{}) error {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}

		return sql.ErrNoRows
	}

	target, err := structTarget(dest)
	if err != nil {
		return err
	}

	return s.scanCurrent(rows, target)
}

// ScanRowsToSlice appends one element per remaining row to the slice dest
// points to. Elements may be structs or pointers to structs.
func (s *Scanner) ScanRowsToSlice(rows *sql.Rows, dest interface{}) error {
	destValue := reflect.ValueOf(dest)

	if destValue.Kind() != reflect.Ptr || destValue.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("dest must be a pointer to slice, got %T", dest)
	}

	slice := destValue.Elem()
	elemType := slice.Type().Elem()
	isPtr := elemType.Kind() == reflect.Ptr

	if isPtr {
		elemType = elemType.Elem()
	}

	if elemType.Kind() != reflect.Struct {
		return fmt.Errorf("slice elements must be structs, got %s", elemType)
	}

	for rows.Next() {
		elem := reflect.New(elemType)

		if err := s.scanCurrent(rows, elem.Elem()); err != nil {
			return err
		}

		if isPtr {
			slice.Set(reflect.Append(slice, elem))
		} else {
			slice.Set(reflect.Append(slice, elem.Elem()))
		}
	}

	return rows.Err()
}

func structTarget(dest interface{}) (reflect.Value, error) {
	value := reflect.ValueOf(dest)

	if value.Kind() != reflect.Ptr || value.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("dest must be a pointer to struct, got %T", dest)
	}

	return value.Elem(), nil
}

func (s *Scanner) scanCurrent(rows *sql.Rows, target reflect.Value) error {
	columns, err := rows.Columns()
	if err != nil {
		return err
	}

	values := make([]interface{}, len(columns))
	pointers := make([]interface{}, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}

	if err := rows.Scan(pointers...); err != nil {
		return err
	}

	fields := s.fieldsOf(target.Type())

	for i, column := range columns {
		index, ok := fields[column]
		if !ok {
			continue
		}

		if err := assign(target.FieldByIndex(index), values[i]); err != nil {
			return fmt.Errorf("column %s: %w", column, err)
		}
	}

	return nil
}

func (s *Scanner) fieldsOf(structType reflect.Type) map[string][]int {
	if cached, ok := s.fields.Load(structType); ok {
		return cached.(map[string][]int)
	}

	fields := make(map[string][]int, structType.NumField())

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)

		if tag := field.Tag.Get("db"); tag != "" && tag != "-" {
			fields[tag] = field.Index
		}
	}

	s.fields.Store(structType, fields)

	return fields
}

// assign stores a driver value in field. NULL leaves the zero value.
func assign(field reflect.Value, value interface{}) error {
	if value == nil {
		return nil
	}

	if field.Kind() == reflect.Ptr {
		target := reflect.New(field.Type().Elem())

		if err := assign(target.Elem(), value); err != nil {
			return err
		}

		field.Set(target)
		return nil
	}

	if b, ok := value.([]byte); ok {
		value = string(b)
	}

	switch field.Type() {
	case uuidType:
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("cannot scan %T into uuid", value)
		}

		id, err := uuid.Parse(str)
		if err != nil {
			return err
		}

		field.Set(reflect.ValueOf(id))
		return nil

	case timeType:
		switch v := value.(type) {
		case time.Time:
			field.Set(reflect.ValueOf(v))
			return nil
		case string:
			parsed, err := parseTime(v)
			if err != nil {
				return err
			}

			field.Set(reflect.ValueOf(parsed))
			return nil
		default:
			return fmt.Errorf("cannot scan %T into time", value)
		}
	}

	switch field.Kind() {
	case reflect.String:
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("cannot scan %T into string", value)
		}

		field.SetString(str)

	case reflect.Int, reflect.Int32, reflect.Int64:
		switch v := value.(type) {
		case int64:
			field.SetInt(v)
		case bool:
			if v {
				field.SetInt(1)
			}
		default:
			return fmt.Errorf("cannot scan %T into %s", value, field.Kind())
		}

	case reflect.Bool:
		switch v := value.(type) {
		case bool:
			field.SetBool(v)
		case int64:
			field.SetBool(v != 0)
		default:
			return fmt.Errorf("cannot scan %T into bool", value)
		}

	case reflect.Float32, reflect.Float64:
		switch v := value.(type) {
		case float64:
			field.SetFloat(v)
		case int64:
			field.SetFloat(float64(v))
		default:
			return fmt.Errorf("cannot scan %T into %s", value, field.Kind())
		}

	default:
		return fmt.Errorf("unsupported field type %s", field.Type())
	}

	return nil
}

func parseTime(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}

	return time.Time{}, fmt.Errorf("unparseable time %q", value)
}
