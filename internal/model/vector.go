package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Vector 是文本的嵌入向量，以 JSON 数组形式存储在数据库的 json 列中。
type Vector []float32

// Value 实现 driver.Valuer，序列化为 JSON 写入数据库。
func (v Vector) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// Scan 实现 sql.Scanner，从数据库读取 JSON 并反序列化。
func (v *Vector) Scan(value interface{}) error {
	if value == nil {
		*v = nil
		return nil
	}
	switch data := value.(type) {
	case []byte:
		return json.Unmarshal(data, v)
	case string:
		return json.Unmarshal([]byte(data), v)
	default:
		return fmt.Errorf("unsupported type for embedding vector: %T", value)
	}
}
