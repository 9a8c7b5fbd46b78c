// Package inference подключает среду выполнения моделей.
//
// Реальный загрузчик собирается с тегом tflite, без него Load возвращает ошибку
// и снимки сохраняются без тепловой карты.
package inference
