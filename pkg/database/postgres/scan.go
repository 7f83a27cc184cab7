package postgres

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
)

// 列名 -> 字段下标映射缓存，按结构体类型缓存
var columnCache sync.Map // map[reflect.Type]map[string]int

// columnsOf 解析结构体的 db 标签
func columnsOf(t reflect.Type) map[string]int {
	if cached, ok := columnCache.Load(t); ok {
		return cached.(map[string]int)
	}

	cols := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name, _, _ := strings.Cut(field.Tag.Get("db"), ",")
		switch name {
		case "-":
			continue
		case "":
			name = toSnakeCase(field.Name)
		}
		cols[name] = i
	}

	actual, _ := columnCache.LoadOrStore(t, cols)
	return actual.(map[string]int)
}

// scanOne 扫描第一行到结构体
func scanOne[T any](rows pgx.Rows) (*T, error) {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNoRows
	}

	var result T
	if err := scanStruct(rows, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// scanAll 扫描所有行到结构体切片
func scanAll[T any](rows pgx.Rows) ([]*T, error) {
	results := make([]*T, 0)
	for rows.Next() {
		var item T
		if err := scanStruct(rows, &item); err != nil {
			return nil, err
		}
		results = append(results, &item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// scanStruct 扫描当前行到结构体，未映射的列被丢弃
func scanStruct(rows pgx.Rows, dest any) error {
	v := reflect.ValueOf(dest)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("dest must be a pointer to struct, got %T", dest)
	}
	v = v.Elem()

	cols := columnsOf(v.Type())
	fds := rows.FieldDescriptions()
	targets := make([]any, len(fds))
	for i, fd := range fds {
		if idx, ok := cols[fd.Name]; ok {
			targets[i] = v.Field(idx).Addr().Interface()
			continue
		}
		var discard any
		targets[i] = &discard
	}

	return rows.Scan(targets...)
}

// toSnakeCase 驼峰转蛇形
func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}
